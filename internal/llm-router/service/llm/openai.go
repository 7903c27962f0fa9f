package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"llm-router/internal/llm-router/catalog"
	"llm-router/internal/llm-router/models"

	openai "github.com/sashabaranov/go-openai"
)

const (
	groqBaseURL       = "https://api.groq.com/openai/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenAIProvider talks to OpenAI and to the OpenAI-compatible APIs of Groq
// and OpenRouter.
type OpenAIProvider struct {
	name   string
	client *openai.Client
}

func NewOpenAIProvider(apiKey, baseURL string, timeout time.Duration) *OpenAIProvider {
	return newOpenAICompatible(catalog.ProviderOpenAI, apiKey, baseURL, timeout, nil)
}

func NewGroqProvider(apiKey, baseURL string, timeout time.Duration) *OpenAIProvider {
	if baseURL == "" {
		baseURL = groqBaseURL
	}
	return newOpenAICompatible(catalog.ProviderGroq, apiKey, baseURL, timeout, nil)
}

// NewOpenRouterProvider sets the attribution headers OpenRouter expects on
// every request.
func NewOpenRouterProvider(apiKey, baseURL string, timeout time.Duration, headers map[string]string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}
	return newOpenAICompatible(catalog.ProviderOpenRouter, apiKey, baseURL, timeout, headers)
}

func newOpenAICompatible(
	name, apiKey, baseURL string, timeout time.Duration, headers map[string]string,
) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	config.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: &headerTransport{headers: headers, base: http.DefaultTransport},
	}

	return &OpenAIProvider{
		name:   name,
		client: openai.NewClientWithConfig(config),
	}
}

func (p *OpenAIProvider) Name() string {
	return p.name
}

func (p *OpenAIProvider) Chat(
	ctx context.Context, model string, messages []models.ChatMessage, params ChatParams,
) (*ChatResult, error) {
	req := openai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: params.MaxTokens,
		Messages:  make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(
			req.Messages, openai.ChatCompletionMessage{
				Role:    m.Role,
				Content: m.Content,
				Name:    m.Name,
			},
		)
	}
	if params.Temperature != nil {
		req.Temperature = samplingValue(*params.Temperature)
	}
	if params.TopP != nil {
		req.TopP = samplingValue(*params.TopP)
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, p.classify(model, err)
	}

	result, err := normalizeChatCompletion(resp)
	if err != nil {
		return nil, &ProviderError{Kind: ErrProviderError, Provider: p.name, Model: model, Err: err}
	}
	return result, nil
}

// samplingValue converts an explicit sampling option for go-openai, whose
// float fields are omitempty: 0 is sent as the smallest non-zero float32 so
// the provider does not substitute its own default.
func samplingValue(v float64) float32 {
	if v == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(v)
}

func (p *OpenAIProvider) Embed(ctx context.Context, model string, inputs []string) (*EmbeddingResult, error) {
	resp, err := p.client.CreateEmbeddings(
		ctx, openai.EmbeddingRequestStrings{
			Input: inputs,
			Model: openai.EmbeddingModel(model),
		},
	)
	if err != nil {
		return nil, p.classify(model, err)
	}

	result, err := normalizeEmbeddings(resp, len(inputs))
	if err != nil {
		return nil, &ProviderError{Kind: ErrProviderError, Provider: p.name, Model: model, Err: err}
	}
	return result, nil
}

func (p *OpenAIProvider) Ping(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return p.classify("", err)
	}
	return nil
}

func (p *OpenAIProvider) classify(model string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return newProviderError(p.name, model, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return newProviderError(p.name, model, reqErr.HTTPStatusCode, err)
	}
	return classifyTransportError(p.name, model, err)
}

// normalizeChatCompletion is the only place that reads OpenAI response fields.
func normalizeChatCompletion(resp openai.ChatCompletionResponse) (*ChatResult, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no completion choices returned")
	}
	return &ChatResult{
		ID:           resp.ID,
		Content:      resp.Choices[0].Message.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		FinishReason: string(resp.Choices[0].FinishReason),
	}, nil
}

// normalizeEmbeddings orders vectors by the index the provider reports so
// that vectors[i] belongs to inputs[i].
func normalizeEmbeddings(resp openai.EmbeddingResponse, inputs int) (*EmbeddingResult, error) {
	if len(resp.Data) != inputs {
		return nil, fmt.Errorf("expected %d embeddings, got %d", inputs, len(resp.Data))
	}

	vectors := make([][]float32, inputs)
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= inputs {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		if vectors[d.Index] != nil {
			return nil, fmt.Errorf("duplicate embedding index %d", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	return &EmbeddingResult{
		Vectors:     vectors,
		InputTokens: resp.Usage.PromptTokens,
	}, nil
}

type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) == 0 {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}
