package treestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"appforge/internal/codegen"
)

func TestLocalStore_WriteReadList(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	tree := codegen.FileTree{
		"backend/main.py":            "print('ok')\n",
		"frontend/src/App.jsx":       "export default function App() {}\n",
		"README.md":                  "# App\n",
		"backend/models/__init__.py": "",
	}
	ctx := context.Background()
	if err := store.WriteTree(ctx, "build-1", tree); err != nil {
		t.Fatalf("WriteTree: %v", err)
	}

	got, err := store.ReadFile(ctx, "build-1", "backend/main.py")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "print('ok')\n" {
		t.Fatalf("ReadFile content = %q", got)
	}

	paths, err := store.List(ctx, "build-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(paths, tree.Paths()) {
		t.Fatalf("List = %v, want %v", paths, tree.Paths())
	}
}

func TestLocalStore_OverwriteReplacesContent(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ctx := context.Background()
	if err := store.WriteTree(ctx, "b", codegen.FileTree{"a.txt": "one"}); err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	if err := store.WriteTree(ctx, "b", codegen.FileTree{"a.txt": "two"}); err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	got, err := store.ReadFile(ctx, "b", "a.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "two" {
		t.Fatalf("content = %q, want %q", got, "two")
	}
}

func TestLocalStore_RejectsEscapingPaths(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(filepath.Join(root, "store"))
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ctx := context.Background()

	for _, bad := range []string{"../outside.txt", "/etc/passwd", "a/../../b"} {
		err := store.WriteTree(ctx, "b", codegen.FileTree{bad: "x"})
		if err == nil {
			t.Errorf("WriteTree accepted escaping path %q", bad)
		}
	}
	if err := store.WriteTree(ctx, "../b", codegen.FileTree{"a.txt": "x"}); err == nil {
		t.Error("WriteTree accepted escaping build id")
	}
	if _, err := os.Stat(filepath.Join(root, "outside.txt")); err == nil {
		t.Error("escaping path was written outside the root")
	}
}

func TestLocalStore_NotFound(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ctx := context.Background()
	if _, err := store.ReadFile(ctx, "missing", "a.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ReadFile err = %v, want ErrNotFound", err)
	}
	if _, err := store.List(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("List err = %v, want ErrNotFound", err)
	}
}
