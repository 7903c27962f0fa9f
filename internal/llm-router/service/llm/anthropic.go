package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"llm-router/internal/llm-router/catalog"
	"llm-router/internal/llm-router/models"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicProvider struct {
	client anthropic.Client
}

// NewAnthropicProvider disables the SDK's built-in retries: retry policy
// belongs to the caller.
func NewAnthropicProvider(apiKey, baseURL string, timeout time.Duration) *AnthropicProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
	}
}

func (p *AnthropicProvider) Name() string {
	return catalog.ProviderAnthropic
}

func (p *AnthropicProvider) Chat(
	ctx context.Context, model string, messages []models.ChatMessage, params ChatParams,
) (*ChatResult, error) {
	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(params.MaxTokens),
	}

	// System turns go to the top-level system prompt.
	for _, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			req.System = append(req.System, anthropic.TextBlockParam{Text: m.Content})
		case models.RoleAssistant:
			req.Messages = append(req.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			req.Messages = append(req.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if len(req.Messages) == 0 {
		return nil, invalidRequest(p.Name(), model, "at least one user or assistant message is required")
	}
	if params.Temperature != nil {
		// Anthropic accepts temperatures up to 1.
		if *params.Temperature > 1 {
			return nil, invalidRequest(p.Name(), model, "temperature %v exceeds 1", *params.Temperature)
		}
		req.Temperature = anthropic.Float(*params.Temperature)
	}
	if params.TopP != nil {
		req.TopP = anthropic.Float(*params.TopP)
	}

	msg, err := p.client.Messages.New(ctx, req)
	if err != nil {
		return nil, p.classify(model, err)
	}
	return normalizeAnthropicMessage(msg)
}

func (p *AnthropicProvider) Embed(_ context.Context, model string, _ []string) (*EmbeddingResult, error) {
	return nil, invalidRequest(p.Name(), model, "anthropic does not serve embeddings")
}

func (p *AnthropicProvider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		return p.classify("", err)
	}
	return nil
}

func (p *AnthropicProvider) classify(model string, err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return newProviderError(p.Name(), model, apiErr.StatusCode, err)
	}
	return classifyTransportError(p.Name(), model, err)
}

func normalizeAnthropicMessage(msg *anthropic.Message) (*ChatResult, error) {
	if msg == nil {
		return nil, fmt.Errorf("empty anthropic response")
	}

	var content string
	for _, block := range msg.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &ChatResult{
		ID:           msg.ID,
		Content:      content,
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
		FinishReason: string(msg.StopReason),
	}, nil
}
