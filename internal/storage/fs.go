package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mobiltex-datalake/internal/domain"
)

// FSStore is an ObjectStore rooted at a local directory, used in local mode
// so loaded data survives between CLI invocations. Keys map to file paths
// under the root.
type FSStore struct {
	root string
}

// NewFSStore creates the root directory if needed and returns a store.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Put writes data at key, creating parent directories as needed.
func (s *FSStore) Put(_ context.Context, key string, data []byte) error {
	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return domain.ErrTransient(err, "mkdir for %q", key)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return domain.ErrTransient(err, "write %q", key)
	}
	return nil
}

// Get returns the object at key.
func (s *FSStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, domain.ErrNotFound("object %q not found", key)
	}
	if err != nil {
		return nil, domain.ErrTransient(err, "read %q", key)
	}
	return data, nil
}

// List returns all keys under prefix, sorted.
func (s *FSStore) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, domain.ErrTransient(err, "list %q", prefix)
	}
	sort.Strings(keys)
	return keys, nil
}

// Copy duplicates srcKey to dstKey.
func (s *FSStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	data, err := s.Get(ctx, srcKey)
	if err != nil {
		return err
	}
	return s.Put(ctx, dstKey, data)
}

// Delete removes the object at key.
func (s *FSStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return domain.ErrTransient(err, "delete %q", key)
	}
	return nil
}
