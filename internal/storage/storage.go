// Package storage stores original uploaded files on the local filesystem
// under {root}/{tenant_id}/{document_id}/{filename}.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fieldops-ai/fieldops/internal/domain"
)

// FileStore is a filesystem-backed document store.
type FileStore struct {
	root string
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: empty storage root", domain.ErrStorage)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create storage root: %w", domain.ErrStorage, err)
	}
	return &FileStore{root: root}, nil
}

// Upload writes the file and returns its path relative to the store root.
// The content type is accepted for interface compatibility; the filesystem
// does not record it.
func (s *FileStore) Upload(_ context.Context, tenantID, documentID, filename string, content []byte, _ string) (string, error) {
	rel, err := s.relPath(tenantID, documentID, filename)
	if err != nil {
		return "", err
	}

	abs := filepath.Join(s.root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("%w: create document dir: %w", domain.ErrStorage, err)
	}
	if err := os.WriteFile(abs, content, 0o644); err != nil {
		return "", fmt.Errorf("%w: write file: %w", domain.ErrStorage, err)
	}
	return rel, nil
}

// Download reads a stored file back.
func (s *FileStore) Download(_ context.Context, tenantID, documentID, filename string) ([]byte, error) {
	rel, err := s.relPath(tenantID, documentID, filename)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(filepath.Join(s.root, rel))
	if err != nil {
		return nil, fmt.Errorf("%w: read file: %w", domain.ErrStorage, err)
	}
	return content, nil
}

// Delete removes a stored file and prunes the now-empty document directory.
// Deleting a missing file is not an error.
func (s *FileStore) Delete(_ context.Context, tenantID, documentID, filename string) error {
	rel, err := s.relPath(tenantID, documentID, filename)
	if err != nil {
		return err
	}

	abs := filepath.Join(s.root, rel)
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove file: %w", domain.ErrStorage, err)
	}
	// Best effort; fails when other files remain.
	_ = os.Remove(filepath.Dir(abs))
	return nil
}

// relPath builds {tenant}/{document}/{filename}, rejecting components that
// would escape the store root.
func (s *FileStore) relPath(tenantID, documentID, filename string) (string, error) {
	for _, part := range []string{tenantID, documentID, filename} {
		if part == "" || part == "." || part == ".." ||
			strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("%w: invalid path component %q", domain.ErrStorage, part)
		}
	}
	return filepath.Join(tenantID, documentID, filename), nil
}
