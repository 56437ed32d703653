// Package blob provides the file store that holds snapshot artifacts.
package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when an artifact does not exist.
var ErrNotFound = errors.New("blob: artifact not found")

// Info describes a stored artifact.
type Info struct {
	Path string
	Size int64
}

// BlobStore is a hierarchical file store for snapshot artifacts.
type BlobStore interface {
	Write(ctx context.Context, path string, data []byte) error
	Read(ctx context.Context, path string) ([]byte, error)

	// Delete removes an artifact. Deleting a missing artifact is not
	// an error.
	Delete(ctx context.Context, path string) error

	Stat(ctx context.Context, path string) (*Info, error)
	List(ctx context.Context, dir string) ([]string, error)
	EnsureDirectory(ctx context.Context, dir string) error
}

// LocalBlobStore implements BlobStore on the local file system, rooted
// at a base directory.
type LocalBlobStore struct {
	basePath    string
	permissions os.FileMode
}

// NewLocalBlobStore creates a blob store rooted at basePath, creating
// the directory if absent.
func NewLocalBlobStore(basePath string, permissions os.FileMode) (*LocalBlobStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("blob: base path is required")
	}
	if permissions == 0 {
		permissions = 0755
	}

	if err := os.MkdirAll(basePath, permissions); err != nil {
		return nil, fmt.Errorf("blob: create base directory %s: %w", basePath, err)
	}

	return &LocalBlobStore{basePath: basePath, permissions: permissions}, nil
}

// Write stores data at path, creating parent directories as needed.
func (s *LocalBlobStore) Write(ctx context.Context, path string, data []byte) error {
	full := s.resolve(path)

	if err := os.MkdirAll(filepath.Dir(full), s.permissions); err != nil {
		return fmt.Errorf("blob: create directory for %s: %w", path, err)
	}

	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("blob: write %s: %w", path, err)
	}

	return nil
}

// Read returns the contents of the artifact at path.
func (s *LocalBlobStore) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(path))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("blob: read %s: %w", path, err)
	}

	return data, nil
}

// Delete removes the artifact at path. Missing artifacts are ignored.
func (s *LocalBlobStore) Delete(ctx context.Context, path string) error {
	err := os.Remove(s.resolve(path))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blob: delete %s: %w", path, err)
	}

	return nil
}

// Stat returns size information for the artifact at path.
func (s *LocalBlobStore) Stat(ctx context.Context, path string) (*Info, error) {
	fi, err := os.Stat(s.resolve(path))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("blob: stat %s: %w", path, err)
	}

	return &Info{Path: path, Size: fi.Size()}, nil
}

// List returns the names of artifacts directly under dir.
func (s *LocalBlobStore) List(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(s.resolve(dir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("blob: list %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}

// EnsureDirectory creates dir (and parents) if absent.
func (s *LocalBlobStore) EnsureDirectory(ctx context.Context, dir string) error {
	if err := os.MkdirAll(s.resolve(dir), s.permissions); err != nil {
		return fmt.Errorf("blob: ensure directory %s: %w", dir, err)
	}

	return nil
}

// BasePath returns the root directory of the store.
func (s *LocalBlobStore) BasePath() string {
	return s.basePath
}

// resolve maps a store-relative path onto the base directory,
// neutralizing path traversal segments.
func (s *LocalBlobStore) resolve(path string) string {
	cleaned := filepath.Clean("/" + strings.ReplaceAll(path, "\\", "/"))
	return filepath.Join(s.basePath, cleaned)
}
