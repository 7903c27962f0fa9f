package llm

import (
	"context"

	"llm-router/internal/llm-router/models"
)

// ChatParams are resolved generation parameters, already validated and capped
// by the Executor.
type ChatParams struct {
	MaxTokens   int
	Temperature *float64
	TopP        *float64
}

// ChatResult is the provider-neutral result of one chat completion. Token
// counts come from the provider's usage block.
type ChatResult struct {
	ID           string
	Content      string
	InputTokens  int
	OutputTokens int
	FinishReason string
}

// EmbeddingResult holds one vector per input, in input order.
type EmbeddingResult struct {
	Vectors     [][]float32
	InputTokens int
}

// Provider performs calls against one backing AI provider. Implementations
// hold no per-call state and are safe for concurrent use.
type Provider interface {
	Name() string
	Chat(ctx context.Context, model string, messages []models.ChatMessage, params ChatParams) (*ChatResult, error)
	Embed(ctx context.Context, model string, inputs []string) (*EmbeddingResult, error)
	Ping(ctx context.Context) error
}
