package llm

import (
	"context"
	"sync"
	"testing"

	"llm-router/internal/llm-router/catalog"
	"llm-router/internal/llm-router/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name    string
	mu      sync.Mutex
	chats   []ChatParams
	vectors int
	err     error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Chat(_ context.Context, model string, _ []models.ChatMessage, params ChatParams) (*ChatResult, error) {
	f.mu.Lock()
	f.chats = append(f.chats, params)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &ChatResult{ID: "r1", Content: "ok from " + model, InputTokens: 100, OutputTokens: 50, FinishReason: "stop"}, nil
}

func (f *fakeProvider) Embed(_ context.Context, _ string, inputs []string) (*EmbeddingResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	n := len(inputs)
	if f.vectors > 0 {
		n = f.vectors
	}
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = []float32{float32(i)}
	}
	return &EmbeddingResult{Vectors: vectors, InputTokens: 7}, nil
}

func (f *fakeProvider) Ping(context.Context) error { return f.err }

func (f *fakeProvider) lastChat() ChatParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chats[len(f.chats)-1]
}

var (
	smallModel = catalog.ModelDescriptor{
		ProviderName: "fake", ModelName: "small", MaxContextTokens: 512,
		CostPerThousandInputTokens: 0.001, CostPerThousandOutputTokens: 0.002,
		ExpectedLatencyMillis: 100, QualityTier: catalog.QualityLow,
		Capabilities: []catalog.Capability{catalog.CapabilityReasoning},
	}
	largeModel = catalog.ModelDescriptor{
		ProviderName: "fake", ModelName: "large", MaxContextTokens: 128000,
		CostPerThousandInputTokens: 0.01, CostPerThousandOutputTokens: 0.03,
		ExpectedLatencyMillis: 1000, QualityTier: catalog.QualityHigh,
		Capabilities: []catalog.Capability{catalog.CapabilityReasoning},
	}
	embedModel = catalog.ModelDescriptor{
		ProviderName: "fake", ModelName: "embed", MaxContextTokens: 8191,
		CostPerThousandInputTokens: 0.00002, ExpectedLatencyMillis: 100, QualityTier: catalog.QualityMedium,
		Capabilities: []catalog.Capability{catalog.CapabilityEmbeddings},
	}
)

func userMessages(text string) []models.ChatMessage {
	return []models.ChatMessage{{Role: models.RoleUser, Content: text}}
}

func TestExecuteChatMaxTokens(t *testing.T) {
	tests := []struct {
		name      string
		model     catalog.ModelDescriptor
		requested int
		want      int
	}{
		{
			name:  "default when unset",
			model: largeModel,
			want:  DefaultMaxTokens,
		},
		{
			name:  "default capped at context",
			model: smallModel,
			want:  512,
		},
		{
			name:      "requested below context",
			model:     largeModel,
			requested: 4000,
			want:      4000,
		},
		{
			name:      "requested above context",
			model:     smallModel,
			requested: 4000,
			want:      512,
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				provider := &fakeProvider{name: "fake"}
				executor := NewExecutor(provider)

				exec, err := executor.ExecuteChat(
					context.Background(), tt.model, userMessages("hi"), GenerationParams{MaxTokens: tt.requested},
				)
				require.NoError(t, err)
				assert.Equal(t, tt.want, exec.MaxTokens)
				assert.Equal(t, tt.want, provider.lastChat().MaxTokens)
				assert.Equal(t, 100, exec.InputTokens)
				assert.Equal(t, 50, exec.OutputTokens)
			},
		)
	}
}

func TestExecuteChatRejectsInvalidParams(t *testing.T) {
	negative := -0.1
	tooHot := 2.5
	topP := 1.5

	tests := []struct {
		name     string
		model    catalog.ModelDescriptor
		messages []models.ChatMessage
		params   GenerationParams
	}{
		{
			name:     "stream",
			model:    largeModel,
			messages: userMessages("hi"),
			params:   GenerationParams{Stream: true},
		},
		{
			name:  "no messages",
			model: largeModel,
		},
		{
			name:     "unknown role",
			model:    largeModel,
			messages: []models.ChatMessage{{Role: "tool", Content: "x"}},
		},
		{
			name:     "negative temperature",
			model:    largeModel,
			messages: userMessages("hi"),
			params:   GenerationParams{Temperature: &negative},
		},
		{
			name:     "temperature above two",
			model:    largeModel,
			messages: userMessages("hi"),
			params:   GenerationParams{Temperature: &tooHot},
		},
		{
			name:     "topP above one",
			model:    largeModel,
			messages: userMessages("hi"),
			params:   GenerationParams{TopP: &topP},
		},
		{
			name:     "negative max tokens",
			model:    largeModel,
			messages: userMessages("hi"),
			params:   GenerationParams{MaxTokens: -1},
		},
		{
			name:     "embedding model",
			model:    embedModel,
			messages: userMessages("hi"),
		},
		{
			name: "unknown provider",
			model: catalog.ModelDescriptor{
				ProviderName: "nobody", ModelName: "m", MaxContextTokens: 10,
				Capabilities: []catalog.Capability{catalog.CapabilityReasoning},
			},
			messages: userMessages("hi"),
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				provider := &fakeProvider{name: "fake"}
				executor := NewExecutor(provider)

				_, err := executor.ExecuteChat(context.Background(), tt.model, tt.messages, tt.params)
				assert.ErrorIs(t, err, ErrInvalidRequest)
				assert.Empty(t, provider.chats)
			},
		)
	}
}

func TestExecuteChatPassesProviderErrorsThrough(t *testing.T) {
	provider := &fakeProvider{name: "fake", err: newProviderError("fake", "large", 429, nil)}
	executor := NewExecutor(provider)

	_, err := executor.ExecuteChat(context.Background(), largeModel, userMessages("hi"), GenerationParams{})
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestExecuteEmbeddings(t *testing.T) {
	executor := NewExecutor(&fakeProvider{name: "fake"})

	exec, err := executor.ExecuteEmbeddings(context.Background(), embedModel, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, exec.Vectors, 3)
	assert.Equal(t, []float32{2}, exec.Vectors[2])
	assert.Equal(t, 7, exec.InputTokens)
}

func TestExecuteEmbeddingsErrors(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		model    catalog.ModelDescriptor
		inputs   []string
		want     error
	}{
		{
			name:     "chat model",
			provider: &fakeProvider{name: "fake"},
			model:    largeModel,
			inputs:   []string{"a"},
			want:     ErrInvalidRequest,
		},
		{
			name:     "no inputs",
			provider: &fakeProvider{name: "fake"},
			model:    embedModel,
			want:     ErrInvalidRequest,
		},
		{
			name:     "blank input",
			provider: &fakeProvider{name: "fake"},
			model:    embedModel,
			inputs:   []string{"a", "  "},
			want:     ErrInvalidRequest,
		},
		{
			name:     "vector count mismatch",
			provider: &fakeProvider{name: "fake", vectors: 1},
			model:    embedModel,
			inputs:   []string{"a", "b"},
			want:     ErrProviderError,
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				executor := NewExecutor(tt.provider)
				_, err := executor.ExecuteEmbeddings(context.Background(), tt.model, tt.inputs)
				assert.ErrorIs(t, err, tt.want)
			},
		)
	}
}

func TestExecutorProviderNames(t *testing.T) {
	executor := NewExecutor(&fakeProvider{name: "zeta"}, &fakeProvider{name: "alpha"})
	assert.Equal(t, []string{"alpha", "zeta"}, executor.ProviderNames())

	_, ok := executor.Provider("alpha")
	assert.True(t, ok)
	_, ok = executor.Provider("beta")
	assert.False(t, ok)
}
