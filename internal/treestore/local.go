package treestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"appforge/internal/codegen"
)

// LocalStore writes trees under a fixed root directory. Every path is
// resolved relative to the root and must stay inside it.
type LocalStore struct {
	absRoot string
}

// NewLocalStore locks all writes to the given root directory, creating it
// if necessary.
func NewLocalStore(root string) (*LocalStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("treestore: empty root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	return &LocalStore{absRoot: abs}, nil
}

// Root returns the absolute root directory bound to this store.
func (s *LocalStore) Root() string {
	if s == nil {
		return ""
	}
	return s.absRoot
}

func (s *LocalStore) WriteTree(ctx context.Context, buildID string, tree codegen.FileTree) error {
	if s == nil {
		return errors.New("treestore: store is nil")
	}
	dir, err := s.buildDir(buildID)
	if err != nil {
		return err
	}
	for _, path := range tree.Paths() {
		if err := ctx.Err(); err != nil {
			return err
		}
		full, err := resolveUnder(dir, path)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(full, []byte(tree[path]), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (s *LocalStore) ReadFile(ctx context.Context, buildID, path string) ([]byte, error) {
	if s == nil {
		return nil, errors.New("treestore: store is nil")
	}
	dir, err := s.buildDir(buildID)
	if err != nil {
		return nil, err
	}
	full, err := resolveUnder(dir, path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *LocalStore) List(ctx context.Context, buildID string) ([]string, error) {
	if s == nil {
		return nil, errors.New("treestore: store is nil")
	}
	dir, err := s.buildDir(buildID)
	if err != nil {
		return nil, err
	}
	var paths []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *LocalStore) buildDir(buildID string) (string, error) {
	buildID = strings.TrimSpace(buildID)
	if buildID == "" {
		return "", errors.New("treestore: build id is required")
	}
	return resolveUnder(s.absRoot, buildID)
}

// resolveUnder joins a relative path under root and rejects anything that
// would escape it.
func resolveUnder(root, userPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(userPath))
	if clean == "." || clean == "" {
		return "", errors.New("treestore: empty path")
	}
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("treestore: absolute path %q not allowed", userPath)
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("treestore: path %q escapes the store root", userPath)
	}
	return filepath.Join(root, clean), nil
}
