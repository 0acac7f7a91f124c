package rag

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"policy-rag/internal/models"
)

// Retriever finds the stored chunks nearest to a question
type Retriever struct {
	embedder  embeddings.Embedder
	store     VectorStore
	threshold float64
}

func NewRetriever(embedder embeddings.Embedder, store VectorStore, threshold float64) *Retriever {
	return &Retriever{embedder: embedder, store: store, threshold: threshold}
}

// Search embeds query once and returns up to k matches, most relevant first.
// Matches below the relevance threshold are dropped, so the result may be
// shorter than k or empty. A non-empty documentID restricts the search to
// that document.
func (r *Retriever) Search(ctx context.Context, query, documentID string, k int) ([]models.SearchMatch, error) {
	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingFailed, err)
	}

	matches, err := r.store.Query(ctx, vec, k, models.Filter{DocumentID: documentID})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	kept := matches[:0]
	for _, m := range matches {
		if m.RelevanceScore >= r.threshold {
			kept = append(kept, m)
		}
	}

	log.Debug().Str("document_id", documentID).Int("candidates", len(matches)).Int("kept", len(kept)).Msg("Search complete")
	return kept, nil
}
