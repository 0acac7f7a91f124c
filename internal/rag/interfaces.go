package rag

import (
	"context"

	"policy-rag/internal/models"
)

// VectorStore persists chunk vectors and answers nearest-neighbour queries.
// Query returns at most k matches ordered by ascending distance.
type VectorStore interface {
	Upsert(ctx context.Context, vectors []models.IndexedVector) error
	Query(ctx context.Context, embedding []float32, k int, filter models.Filter) ([]models.SearchMatch, error)
	Delete(ctx context.Context, filter models.Filter) error
	Reset(ctx context.Context) error
}
