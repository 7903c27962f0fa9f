package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"llm-router/internal/llm-router/catalog"
	"llm-router/internal/llm-router/models"
)

// DefaultMaxTokens applies when the caller sets no limit.
const DefaultMaxTokens = 1024

// GenerationParams are the caller's requested options before capping.
type GenerationParams struct {
	MaxTokens   int
	Temperature *float64
	TopP        *float64
	Stream      bool
}

type ChatExecution struct {
	ChatResult
	MaxTokens int
	Latency   time.Duration
}

type EmbeddingExecution struct {
	EmbeddingResult
	Latency time.Duration
}

// Executor dispatches calls to the provider named by a model descriptor.
// It holds no per-call state.
type Executor struct {
	providers map[string]Provider
}

func NewExecutor(providers ...Provider) *Executor {
	e := &Executor{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		e.providers[p.Name()] = p
	}
	return e
}

// Provider returns the provider registered under name.
func (e *Executor) Provider(name string) (Provider, bool) {
	p, ok := e.providers[name]
	return p, ok
}

// ProviderNames returns the registered provider names, sorted.
func (e *Executor) ProviderNames() []string {
	names := make([]string, 0, len(e.providers))
	for name := range e.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExecuteChat validates params, caps MaxTokens at the model's context length
// and performs one chat call.
func (e *Executor) ExecuteChat(
	ctx context.Context, model catalog.ModelDescriptor, messages []models.ChatMessage, params GenerationParams,
) (*ChatExecution, error) {
	provider, ok := e.providers[model.ProviderName]
	if !ok {
		return nil, invalidRequest(model.ProviderName, model.ModelName, "provider is not configured")
	}
	if model.IsEmbeddingModel() {
		return nil, invalidRequest(model.ProviderName, model.ModelName, "model only serves embeddings")
	}

	resolved, err := resolveChatParams(model, messages, params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := provider.Chat(ctx, model.ModelName, messages, resolved)
	latency := time.Since(start)
	if err != nil {
		return nil, err
	}

	return &ChatExecution{
		ChatResult: *result,
		MaxTokens:  resolved.MaxTokens,
		Latency:    latency,
	}, nil
}

// ExecuteEmbeddings performs one embeddings call and checks that exactly one
// vector came back per input.
func (e *Executor) ExecuteEmbeddings(
	ctx context.Context, model catalog.ModelDescriptor, inputs []string,
) (*EmbeddingExecution, error) {
	provider, ok := e.providers[model.ProviderName]
	if !ok {
		return nil, invalidRequest(model.ProviderName, model.ModelName, "provider is not configured")
	}
	if !model.IsEmbeddingModel() {
		return nil, invalidRequest(model.ProviderName, model.ModelName, "model does not serve embeddings")
	}
	if len(inputs) == 0 {
		return nil, invalidRequest(model.ProviderName, model.ModelName, "at least one input text is required")
	}
	for i, in := range inputs {
		if strings.TrimSpace(in) == "" {
			return nil, invalidRequest(model.ProviderName, model.ModelName, "input %d is empty", i)
		}
	}

	start := time.Now()
	result, err := provider.Embed(ctx, model.ModelName, inputs)
	latency := time.Since(start)
	if err != nil {
		return nil, err
	}
	if len(result.Vectors) != len(inputs) {
		return nil, &ProviderError{
			Kind: ErrProviderError, Provider: model.ProviderName, Model: model.ModelName,
			Err: fmt.Errorf("expected %d vectors, got %d", len(inputs), len(result.Vectors)),
		}
	}

	return &EmbeddingExecution{
		EmbeddingResult: *result,
		Latency:         latency,
	}, nil
}

func resolveChatParams(
	model catalog.ModelDescriptor, messages []models.ChatMessage, params GenerationParams,
) (ChatParams, error) {
	if params.Stream {
		return ChatParams{}, invalidRequest(model.ProviderName, model.ModelName, "streaming is not supported")
	}
	if len(messages) == 0 {
		return ChatParams{}, invalidRequest(model.ProviderName, model.ModelName, "at least one message is required")
	}
	for i, m := range messages {
		switch m.Role {
		case models.RoleSystem, models.RoleUser, models.RoleAssistant:
		default:
			return ChatParams{}, invalidRequest(model.ProviderName, model.ModelName, "message %d has unknown role %q", i, m.Role)
		}
	}
	if params.Temperature != nil && (*params.Temperature < 0 || *params.Temperature > 2) {
		return ChatParams{}, invalidRequest(model.ProviderName, model.ModelName, "temperature %v outside [0,2]", *params.Temperature)
	}
	if params.TopP != nil && (*params.TopP < 0 || *params.TopP > 1) {
		return ChatParams{}, invalidRequest(model.ProviderName, model.ModelName, "topP %v outside [0,1]", *params.TopP)
	}
	if params.MaxTokens < 0 {
		return ChatParams{}, invalidRequest(model.ProviderName, model.ModelName, "maxTokens must not be negative")
	}

	maxTokens := params.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}
	if maxTokens > model.MaxContextTokens {
		maxTokens = model.MaxContextTokens
	}

	return ChatParams{
		MaxTokens:   maxTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
	}, nil
}
