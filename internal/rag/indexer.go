package rag

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"policy-rag/internal/chunker"
	"policy-rag/internal/helper"
	"policy-rag/internal/models"
)

// Indexer chunks, embeds and stores the pages of one document
type Indexer struct {
	chunker       *chunker.Chunker
	embedder      embeddings.Embedder
	store         VectorStore
	previewLength int
}

func NewIndexer(c *chunker.Chunker, embedder embeddings.Embedder, store VectorStore, previewLength int) *Indexer {
	return &Indexer{chunker: c, embedder: embedder, store: store, previewLength: previewLength}
}

// Index writes every chunk of pages under documentID. All chunks are embedded
// in one call and written in one upsert; a failed upsert is cleaned up so no
// partial document stays indexed.
func (ix *Indexer) Index(ctx context.Context, pages []models.PageText, documentID string) (*models.IndexResult, error) {
	if len(pages) == 0 {
		return nil, models.ErrExtractionEmpty
	}

	chunks := ix.chunker.ChunkPages(pages)
	if len(chunks) == 0 {
		return nil, models.ErrExtractionEmpty
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := ix.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingFailed, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", models.ErrEmbeddingFailed, len(vectors), len(chunks))
	}

	items := make([]models.IndexedVector, len(chunks))
	for i, c := range chunks {
		items[i] = models.IndexedVector{
			ID:         fmt.Sprintf("%s_%d", documentID, i),
			Embedding:  vectors[i],
			Content:    c.Content,
			DocumentID: documentID,
			PageNumber: c.PageNumber,
			ChunkIndex: c.ChunkIndex,
			Preview:    helper.Truncate(c.Content, ix.previewLength, ""),
		}
	}

	if err := ix.store.Upsert(ctx, items); err != nil {
		if delErr := ix.store.Delete(ctx, models.Filter{DocumentID: documentID}); delErr != nil {
			log.Error().Err(delErr).Str("document_id", documentID).Msg("Failed to clean up partially indexed document")
		}
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}

	pageNumbers := make([]int, 0, len(pages))
	for _, p := range pages {
		pageNumbers = append(pageNumbers, p.PageNumber)
	}

	log.Info().Str("document_id", documentID).Int("pages", len(pages)).Int("chunks", len(chunks)).Msg("Indexed document")
	return &models.IndexResult{
		DocumentID:  documentID,
		TotalPages:  len(pages),
		TotalChunks: len(chunks),
		Pages:       pageNumbers,
		Status:      models.StatusProcessed,
	}, nil
}
