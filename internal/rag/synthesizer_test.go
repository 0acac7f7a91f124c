package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policy-rag/internal/metrics"
	"policy-rag/internal/models"
)

func TestBuildContext(t *testing.T) {
	ctx := BuildContext([]models.SearchMatch{match(2, "limit is $1M", 0.1), match(5, "deductible", 0.2)})
	assert.Equal(t, "Page 2: limit is $1M\n\nPage 5: deductible", ctx)
}

func TestAnswerBuildsGroundedPrompt(t *testing.T) {
	gen := &fakeGenerator{answer: "The limit is $1M."}
	s := NewSynthesizer(gen, 1000, 0.1, nil)

	answer := s.Answer(context.Background(), "What is the limit?", []models.SearchMatch{match(2, "limit is $1M", 0.1)})
	assert.Equal(t, "The limit is $1M.", answer)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, models.SystemPrompt, gen.system)
	assert.Contains(t, gen.user, "What is the limit?")
	assert.Contains(t, gen.user, "Page 2: limit is $1M")
}

func TestAnswerWithoutMatchesSkipsGeneration(t *testing.T) {
	gen := &fakeGenerator{answer: "should not be used"}
	s := NewSynthesizer(gen, 1000, 0.1, nil)

	assert.Equal(t, models.NoResultsAnswer, s.Answer(context.Background(), "q", nil))
	assert.Zero(t, gen.calls)
}

func TestAnswerFallbacks(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	matches := []models.SearchMatch{match(1, "text", 0.1)}

	quota := NewSynthesizer(&fakeGenerator{err: fmt.Errorf("%w: 429", models.ErrQuotaExhausted)}, 10, 0, m)
	assert.Equal(t, models.QuotaFallbackAnswer, quota.Answer(context.Background(), "q", matches))

	generic := NewSynthesizer(&fakeGenerator{err: errors.New("connection reset")}, 10, 0, m)
	answer := generic.Answer(context.Background(), "q", matches)
	assert.True(t, strings.HasPrefix(answer, models.GenerationErrorPrefix))
	assert.Contains(t, answer, "connection reset")
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name    string
		matches []models.SearchMatch
		want    float64
	}{
		{"empty", nil, 0},
		{"one perfect", []models.SearchMatch{match(1, "", 0)}, 0.7 + 0.1},
		{"two", []models.SearchMatch{match(1, "", 0.2), match(2, "", 0.4)}, 0.7*0.7 + 0.3*2.0/3.0},
		{"three saturates breadth", []models.SearchMatch{match(1, "", 0.5), match(2, "", 0.5), match(3, "", 0.5)}, 0.7*0.5 + 0.3},
		{"five perfect caps at one", []models.SearchMatch{match(1, "", 0), match(2, "", 0), match(3, "", 0), match(4, "", 0), match(5, "", 0)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Confidence(tt.matches)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestConfidenceBoundsForAnyRelevance(t *testing.T) {
	for _, d := range []float64{0, 0.3, 0.9, 1.5, 2} {
		got := Confidence([]models.SearchMatch{match(1, "", d), match(2, "", d)})
		require.GreaterOrEqual(t, got, 0.0, "distance %v", d)
		require.LessOrEqual(t, got, 1.0, "distance %v", d)
	}
}
