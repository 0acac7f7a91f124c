package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"policy-rag/internal/config"
	"policy-rag/internal/models"
)

// Generator turns a system instruction and a user prompt into text.
// Rate or quota failures wrap models.ErrQuotaExhausted, every other failure
// wraps models.ErrGenerationFailed.
type Generator interface {
	Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error)
}

// LLMGenerator is a Generator backed by a langchaingo model
type LLMGenerator struct {
	llm llms.Model
}

func NewLLMGenerator(llm llms.Model) *LLMGenerator {
	return &LLMGenerator{llm: llm}
}

// NewGenerator builds the chat model named by the inference config
func NewGenerator(llmConfig *config.LLMConfig) (*LLMGenerator, error) {
	log.Debug().Str("provider", llmConfig.Provider).Str("model", llmConfig.Model).Msg("Creating generator")

	switch llmConfig.Provider {
	case "openai":
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
			openai.WithModel(llmConfig.Model),
		}
		if llmConfig.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(llmConfig.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, err
		}
		return NewLLMGenerator(llm), nil
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(llmConfig.Model)}
		if llmConfig.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(llmConfig.BaseURL))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, err
		}
		return NewLLMGenerator(llm), nil
	default:
		return nil, fmt.Errorf("%w: unknown inference provider %q", models.ErrConfigurationInvalid, llmConfig.Provider)
	}
}

func (g *LLMGenerator) Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, system),
		llms.TextParts(schema.ChatMessageTypeHuman, user),
	}

	res, err := g.llm.GenerateContent(ctx, messages,
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(temperature),
	)
	if err != nil {
		return "", classify(err)
	}
	if len(res.Choices) == 0 || strings.TrimSpace(res.Choices[0].Content) == "" {
		return "", fmt.Errorf("%w: empty response from model", models.ErrGenerationFailed)
	}
	return strings.TrimSpace(res.Choices[0].Content), nil
}

var quotaMarkers = []string{
	"quota",
	"billing",
	"rate limit",
	"rate_limit",
	"resource_exhausted",
	"429",
	"too many requests",
}

// IsQuotaError reports whether err looks like a provider rate or quota rejection
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func classify(err error) error {
	if IsQuotaError(err) {
		return fmt.Errorf("%w: %w", models.ErrQuotaExhausted, err)
	}
	return fmt.Errorf("%w: %w", models.ErrGenerationFailed, err)
}
