package storage

import (
	"context"
	"fmt"

	"policy-rag/internal/config"
	"policy-rag/internal/models"
)

// FileStore keeps the raw bytes of uploaded documents
type FileStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error
}

// New returns the upload store selected by cfg.Upload.Backend
func New(ctx context.Context, cfg *config.Config) (FileStore, error) {
	switch cfg.Upload.Backend {
	case config.UploadBackendLocal:
		return NewLocalStore(cfg.Upload.Directory)
	case config.UploadBackendMinio:
		return NewMinioStore(ctx, &cfg.Minio)
	default:
		return nil, fmt.Errorf("%w: unknown upload backend %q", models.ErrConfigurationInvalid, cfg.Upload.Backend)
	}
}
