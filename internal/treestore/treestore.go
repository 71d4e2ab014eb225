// Package treestore persists generated application file trees, either on the
// local filesystem or in S3-compatible object storage.
package treestore

import (
	"context"
	"errors"

	"appforge/internal/codegen"
)

// ErrNotFound is returned when a build or one of its files does not exist.
var ErrNotFound = errors.New("treestore: not found")

// Store writes and reads generated trees keyed by build id. Paths inside a
// tree are slash-separated and relative.
type Store interface {
	// WriteTree persists every file of the tree under the build id,
	// replacing any file that already exists at the same path.
	WriteTree(ctx context.Context, buildID string, tree codegen.FileTree) error
	// ReadFile returns one file of a previously written tree.
	ReadFile(ctx context.Context, buildID, path string) ([]byte, error)
	// List returns the sorted relative paths stored under the build id.
	List(ctx context.Context, buildID string) ([]string, error)
}

// URLSigner is implemented by stores that can hand out direct download links
// instead of streaming file bytes through the API.
type URLSigner interface {
	GetURL(ctx context.Context, buildID, path string) (string, error)
}
