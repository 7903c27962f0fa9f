package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"llm-router/internal/llm-router/catalog"
	"llm-router/internal/llm-router/models"

	"google.golang.org/genai"
)

type GeminiProvider struct {
	client *genai.Client
}

func NewGeminiProvider(ctx context.Context, apiKey, baseURL string, timeout time.Duration) (*GeminiProvider, error) {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

func (p *GeminiProvider) Name() string {
	return catalog.ProviderGoogle
}

func (p *GeminiProvider) Chat(
	ctx context.Context, model string, messages []models.ChatMessage, params ChatParams,
) (*ChatResult, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(params.MaxTokens),
	}
	if params.Temperature != nil {
		t := float32(*params.Temperature)
		config.Temperature = &t
	}
	if params.TopP != nil {
		tp := float32(*params.TopP)
		config.TopP = &tp
	}

	contents := make([]*genai.Content, 0, len(messages))
	var systemParts []*genai.Part
	for _, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			systemParts = append(systemParts, &genai.Part{Text: m.Content})
		case models.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(systemParts) > 0 {
		config.SystemInstruction = genai.NewContentFromParts(systemParts, genai.RoleUser)
	}
	if len(contents) == 0 {
		return nil, invalidRequest(p.Name(), model, "at least one user or assistant message is required")
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, p.classify(model, err)
	}

	result, err := normalizeGeminiResponse(resp)
	if err != nil {
		return nil, &ProviderError{Kind: ErrProviderError, Provider: p.Name(), Model: model, Err: err}
	}
	return result, nil
}

// Embed is unsupported: the Gemini API does not report token usage for
// embeddings, so the call could not be costed.
func (p *GeminiProvider) Embed(_ context.Context, model string, _ []string) (*EmbeddingResult, error) {
	return nil, invalidRequest(p.Name(), model, "gemini embeddings are not routed")
}

func (p *GeminiProvider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx, &genai.ListModelsConfig{PageSize: 1}); err != nil {
		return p.classify("", err)
	}
	return nil
}

func (p *GeminiProvider) classify(model string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newProviderError(p.Name(), model, apiErr.Code, err)
	}
	return classifyTransportError(p.Name(), model, err)
}

func normalizeGeminiResponse(resp *genai.GenerateContentResponse) (*ChatResult, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned")
	}
	if resp.UsageMetadata == nil {
		return nil, fmt.Errorf("response carries no usage metadata")
	}

	// thinking tokens are billed as output
	usage := resp.UsageMetadata
	return &ChatResult{
		Content:      resp.Text(),
		InputTokens:  int(usage.PromptTokenCount),
		OutputTokens: int(usage.CandidatesTokenCount + usage.ThoughtsTokenCount),
		FinishReason: string(resp.Candidates[0].FinishReason),
	}, nil
}
