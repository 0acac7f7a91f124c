package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policy-rag/internal/config"
	"policy-rag/internal/models"
)

func TestNewEmbedderProviders(t *testing.T) {
	e, err := NewEmbedder(&config.LLMConfig{Provider: ProviderOllama, BaseURL: "http://localhost:11434", Model: "nomic-embed-text", BatchSize: 16})
	require.NoError(t, err)
	assert.NotNil(t, e)

	e, err = NewEmbedder(&config.LLMConfig{Provider: ProviderOpenAI, Key: "Bearer sk-test", Model: "text-embedding-3-small"})
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestNewEmbedderUnknownProvider(t *testing.T) {
	_, err := NewEmbedder(&config.LLMConfig{Provider: "word2vec"})
	assert.ErrorIs(t, err, models.ErrConfigurationInvalid)
}
