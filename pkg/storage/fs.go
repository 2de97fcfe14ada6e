package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSStore is a filesystem-backed artifact store. Files live under a base
// directory and are addressed externally as baseURL/<path>; the HTTP server
// exposes the directory read-only under that prefix.
type FSStore struct {
	dir     string
	baseURL string
}

// NewFSStore creates a store rooted at dir, serving URLs under baseURL.
func NewFSStore(dir, baseURL string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FSStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the store's root directory.
func (s *FSStore) Dir() string { return s.dir }

// Put implements Store.
func (s *FSStore) Put(ctx context.Context, data []byte, path string) (string, error) {
	full, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return "", err
	}
	return s.baseURL + "/" + path, nil
}

// Get implements Store.
func (s *FSStore) Get(ctx context.Context, path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// resolve maps a store path onto the base directory, refusing escapes.
func (s *FSStore) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	if strings.Contains(path, "..") {
		return "", fmt.Errorf("invalid store path %q", path)
	}
	return filepath.Join(s.dir, clean), nil
}

// Ensure FSStore implements Store.
var _ Store = (*FSStore)(nil)
