package rag

import (
	"context"
	"errors"
	"strings"
	"sync"

	"policy-rag/internal/models"
)

// keywordEmbedder maps text onto three axes: coverage/limits, exclusions
// and everything else. Text naming coverage sits slightly closer to the
// first axis than text that only mentions a limit.
type keywordEmbedder struct {
	mu          sync.Mutex
	docCalls    int
	queryCalls  int
	docErr      error
	queryErr    error
	dropVectors bool
}

func keywordVector(text string) []float32 {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "coverage"):
		return []float32{1, 0.05, 0}
	case strings.Contains(t, "limit"):
		return []float32{1, 0.3, 0}
	case strings.Contains(t, "exclu"):
		return []float32{0, 1, 0}
	default:
		return []float32{0, 0, 1}
	}
}

func (e *keywordEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.docCalls++
	e.mu.Unlock()
	if e.docErr != nil {
		return nil, e.docErr
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, keywordVector(t))
	}
	if e.dropVectors && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (e *keywordEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.queryCalls++
	e.mu.Unlock()
	if e.queryErr != nil {
		return nil, e.queryErr
	}
	return keywordVector(text), nil
}

type fakeGenerator struct {
	mu     sync.Mutex
	calls  int
	system string
	user   string
	answer string
	err    error
}

func (g *fakeGenerator) Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.system, g.user = system, user
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

// memStore is a VectorStore that returns canned matches and records calls
type memStore struct {
	mu         sync.Mutex
	upserted   []models.IndexedVector
	matches    []models.SearchMatch
	lastFilter models.Filter
	lastK      int
	deleted    []models.Filter
	resets     int
	upsertErr  error
	queryErr   error
}

func (s *memStore) Upsert(ctx context.Context, vectors []models.IndexedVector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserted = append(s.upserted, vectors...)
	return nil
}

func (s *memStore) Query(ctx context.Context, embedding []float32, k int, filter models.Filter) ([]models.SearchMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter, s.lastK = filter, k
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	out := make([]models.SearchMatch, len(s.matches))
	copy(out, s.matches)
	return out, nil
}

func (s *memStore) Delete(ctx context.Context, filter models.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if filter.IsEmpty() {
		return errors.New("delete requires a filter")
	}
	s.deleted = append(s.deleted, filter)
	return nil
}

func (s *memStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	s.upserted = nil
	s.matches = nil
	return nil
}

func match(page int, content string, distance float64) models.SearchMatch {
	return models.SearchMatch{
		Content:        content,
		Metadata:       models.MatchMetadata{DocumentID: "doc", PageNumber: page},
		Distance:       distance,
		RelevanceScore: 1 - distance,
	}
}
