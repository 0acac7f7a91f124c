package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policy-rag/internal/models"
)

func TestSearchDropsMatchesBelowThreshold(t *testing.T) {
	store := &memStore{matches: []models.SearchMatch{
		match(1, "close", 0.05),
		match(2, "borderline", 0.85),
		match(3, "far", 0.95),
	}}
	emb := &keywordEmbedder{}
	r := NewRetriever(emb, store, 0.1)

	matches, err := r.Search(context.Background(), "coverage", "", 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "close", matches[0].Content)
	assert.InDelta(t, 0.95, matches[0].RelevanceScore, 1e-9)
	assert.Equal(t, "borderline", matches[1].Content)
	assert.Equal(t, 1, emb.queryCalls)
	assert.Zero(t, emb.docCalls)
	assert.Equal(t, 5, store.lastK)
	assert.True(t, store.lastFilter.IsEmpty())
}

func TestSearchThresholdPair(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		kept     bool
	}{
		{"relevance 0.95 kept", 0.05, true},
		{"relevance 0.05 dropped", 0.95, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{matches: []models.SearchMatch{match(1, "text", tt.distance)}}
			r := NewRetriever(&keywordEmbedder{}, store, 0.1)

			matches, err := r.Search(context.Background(), "q", "", 5)
			require.NoError(t, err)
			if tt.kept {
				assert.Len(t, matches, 1)
			} else {
				assert.Empty(t, matches)
			}
		})
	}
}

func TestSearchScopesToDocument(t *testing.T) {
	store := &memStore{}
	r := NewRetriever(&keywordEmbedder{}, store, 0.1)

	matches, err := r.Search(context.Background(), "q", "doc-42", 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, models.Filter{DocumentID: "doc-42"}, store.lastFilter)
}

func TestSearchEmbeddingFailure(t *testing.T) {
	cause := errors.New("embedding service down")
	r := NewRetriever(&keywordEmbedder{queryErr: cause}, &memStore{}, 0.1)

	_, err := r.Search(context.Background(), "q", "", 5)
	assert.ErrorIs(t, err, models.ErrEmbeddingFailed)
	assert.ErrorIs(t, err, cause)
}

func TestSearchStoreFailure(t *testing.T) {
	cause := errors.New("store offline")
	r := NewRetriever(&keywordEmbedder{}, &memStore{queryErr: cause}, 0.1)

	_, err := r.Search(context.Background(), "q", "", 5)
	assert.ErrorIs(t, err, cause)
}
