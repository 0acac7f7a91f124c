package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"policy-rag/internal/llmservice"
	"policy-rag/internal/metrics"
	"policy-rag/internal/models"
)

// Synthesizer writes an answer grounded in retrieved excerpts
type Synthesizer struct {
	generator   llmservice.Generator
	maxTokens   int
	temperature float64
	metrics     *metrics.Metrics
}

func NewSynthesizer(generator llmservice.Generator, maxTokens int, temperature float64, m *metrics.Metrics) *Synthesizer {
	return &Synthesizer{generator: generator, maxTokens: maxTokens, temperature: temperature, metrics: m}
}

// Answer never fails. Without matches it returns the fixed no-results text
// and skips generation; a generation error becomes a fallback answer.
func (s *Synthesizer) Answer(ctx context.Context, query string, matches []models.SearchMatch) string {
	if len(matches) == 0 {
		return models.NoResultsAnswer
	}

	prompt := fmt.Sprintf(models.UserPromptTemplate, query, BuildContext(matches))
	answer, err := s.generator.Complete(ctx, models.SystemPrompt, prompt, s.maxTokens, s.temperature)
	if err == nil {
		return answer
	}

	if errors.Is(err, models.ErrQuotaExhausted) {
		log.Warn().Err(err).Msg("Generation quota exhausted, returning citation-only answer")
		s.metrics.GenerationFallback(metrics.FallbackQuota)
		return models.QuotaFallbackAnswer
	}
	log.Error().Err(err).Msg("Generation failed")
	s.metrics.GenerationFallback(metrics.FallbackGeneric)
	return models.GenerationErrorPrefix + err.Error()
}

// BuildContext joins the matches as "Page N: content" blocks in match order
func BuildContext(matches []models.SearchMatch) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, fmt.Sprintf("Page %d: %s", m.Metadata.PageNumber, m.Content))
	}
	return strings.Join(parts, "\n\n")
}

// Confidence blends mean relevance (70%) with match breadth, which saturates
// at three matches (30%).
func Confidence(matches []models.SearchMatch) float64 {
	if len(matches) == 0 {
		return 0
	}
	var sum float64
	for _, m := range matches {
		sum += m.RelevanceScore
	}
	avg := sum / float64(len(matches))
	breadth := min(float64(len(matches))/3, 1)
	return max(0, min(1, 0.7*avg+0.3*breadth))
}
