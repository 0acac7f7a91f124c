package embedding

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"policy-rag/internal/config"
	"policy-rag/internal/models"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// NewEmbedder creates a batching embedder for the configured provider
func NewEmbedder(llmConfig *config.LLMConfig) (embeddings.Embedder, error) {
	log.Debug().Interface("config", map[string]string{
		"provider":        llmConfig.Provider,
		"base_url":        llmConfig.BaseURL,
		"embedding_model": llmConfig.Model,
	}).Msg("Loaded embedder config")

	client, err := newClient(llmConfig)
	if err != nil {
		return nil, err
	}

	opts := []embeddings.Option{}
	if llmConfig.BatchSize > 0 {
		opts = append(opts, embeddings.WithBatchSize(llmConfig.BatchSize))
	}
	embedder, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating embedder: %w", err)
	}
	return embedder, nil
}

func newClient(llmConfig *config.LLMConfig) (embeddings.EmbedderClient, error) {
	switch llmConfig.Provider {
	case ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
			openai.WithEmbeddingModel(llmConfig.Model),
		}
		if llmConfig.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(llmConfig.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("error initializing openai embedder: %w", err)
		}
		return llm, nil
	case ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(llmConfig.Model)}
		if llmConfig.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(llmConfig.BaseURL))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("error initializing ollama embedder: %w", err)
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", models.ErrConfigurationInvalid, llmConfig.Provider)
	}
}
