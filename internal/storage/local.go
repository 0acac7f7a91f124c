package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"policy-rag/internal/helper"
)

// LocalStore writes uploads under a directory on disk
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := helper.CreateFolder(dir); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Save(ctx context.Context, key string, data []byte) error {
	return os.WriteFile(s.path(key), data, 0o644)
}

// Remove deletes the stored file. A missing file is not an error.
func (s *LocalStore) Remove(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.dir, filepath.Base(key))
}
