package llmservice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"policy-rag/internal/config"
	"policy-rag/internal/models"
)

type fakeModel struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
	resp     *llms.ContentResponse
	err      error
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	for _, opt := range options {
		opt(&m.opts)
	}
	return m.resp, m.err
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestCompleteSendsSystemAndUserTurns(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "  The limit is $1M.\n"}}}}
	g := NewLLMGenerator(model)

	out, err := g.Complete(context.Background(), "system text", "user text", 1000, 0.1)
	require.NoError(t, err)
	assert.Equal(t, "The limit is $1M.", out)

	require.Len(t, model.messages, 2)
	assert.Equal(t, schema.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.TextContent{Text: "system text"}, model.messages[0].Parts[0])
	assert.Equal(t, schema.ChatMessageTypeHuman, model.messages[1].Role)
	assert.Equal(t, llms.TextContent{Text: "user text"}, model.messages[1].Parts[0])
	assert.Equal(t, 1000, model.opts.MaxTokens)
	assert.InDelta(t, 0.1, model.opts.Temperature, 1e-9)
}

func TestCompleteClassifiesErrors(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		quota bool
	}{
		{"quota", errors.New("You exceeded your current quota"), true},
		{"status 429", errors.New("API returned unexpected status code: 429"), true},
		{"rate limit", errors.New("Rate limit reached for requests"), true},
		{"resource exhausted", errors.New("rpc error: code = RESOURCE_EXHAUSTED"), true},
		{"generic", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewLLMGenerator(&fakeModel{err: tt.err})
			_, err := g.Complete(context.Background(), "s", "u", 10, 0)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			if tt.quota {
				assert.ErrorIs(t, err, models.ErrQuotaExhausted)
				assert.NotErrorIs(t, err, models.ErrGenerationFailed)
			} else {
				assert.ErrorIs(t, err, models.ErrGenerationFailed)
				assert.NotErrorIs(t, err, models.ErrQuotaExhausted)
			}
		})
	}
}

func TestCompleteEmptyResponse(t *testing.T) {
	for _, resp := range []*llms.ContentResponse{
		{},
		{Choices: []*llms.ContentChoice{{Content: "   "}}},
	} {
		_, err := NewLLMGenerator(&fakeModel{resp: resp}).Complete(context.Background(), "s", "u", 10, 0)
		assert.ErrorIs(t, err, models.ErrGenerationFailed)
	}
}

func TestIsQuotaError(t *testing.T) {
	assert.False(t, IsQuotaError(nil))
	assert.True(t, IsQuotaError(errors.New("billing hard limit reached")))
	assert.True(t, IsQuotaError(errors.New("Too Many Requests")))
	assert.False(t, IsQuotaError(errors.New("bad request")))
}

func TestNewGeneratorUnknownProvider(t *testing.T) {
	_, err := NewGenerator(&config.LLMConfig{Provider: "nope"})
	assert.ErrorIs(t, err, models.ErrConfigurationInvalid)
}
