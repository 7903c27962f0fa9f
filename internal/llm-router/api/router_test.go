package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"llm-router/internal/llm-router/accounting"
	"llm-router/internal/llm-router/catalog"
	"llm-router/internal/llm-router/config"
	"llm-router/internal/llm-router/metrics"
	"llm-router/internal/llm-router/models"
	"llm-router/internal/llm-router/selector"
	"llm-router/internal/llm-router/service"
	"llm-router/internal/llm-router/service/llm"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name string
	err  error
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Chat(_ context.Context, model string, _ []models.ChatMessage, _ llm.ChatParams) (*llm.ChatResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &llm.ChatResult{Content: "hello from " + model, InputTokens: 10, OutputTokens: 5, FinishReason: "stop"}, nil
}

func (p *stubProvider) Embed(_ context.Context, _ string, inputs []string) (*llm.EmbeddingResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	vectors := make([][]float32, len(inputs))
	for i := range vectors {
		vectors[i] = []float32{0.1, 0.2}
	}
	return &llm.EmbeddingResult{Vectors: vectors, InputTokens: 4}, nil
}

func (p *stubProvider) Ping(context.Context) error { return p.err }

func setupRouter(t *testing.T, providerErr error) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat := catalog.NewDefault().Filter(
		func(m catalog.ModelDescriptor) bool { return m.ProviderName == catalog.ProviderOpenAI },
	)
	registry := prometheus.NewRegistry()
	svc := service.NewRouterService(
		cat,
		llm.NewExecutor(&stubProvider{name: catalog.ProviderOpenAI, err: providerErr}),
		accounting.NewAccountant(accounting.NewMemoryLedger()),
		service.DefaultRouting(),
		metrics.New(registry),
	)

	cfg := &config.Config{
		Server: config.ServerConfig{
			CORS: config.CORSConfig{Enabled: true, AllowedOrigins: []string{"http://localhost:3000"}},
		},
	}
	return NewRouter(cfg, svc, registry)
}

func doRequest(router *gin.Engine, method, path, org, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if org != "" {
		req.Header.Set(organizationHeader, org)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) Response {
	t.Helper()
	resp := Response{Data: data}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestChatCompletionsEndpoint(t *testing.T) {
	router := setupRouter(t, nil)

	w := doRequest(
		router, http.MethodPost, "/api/v1/chat/completions", "org-1",
		`{"messages": [{"role": "user", "content": "hi"}], "constraints": {"taskLabel": "voice"}}`,
	)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var chat models.ChatResponse
	resp := decode(t, w, &chat)
	assert.True(t, resp.Success)
	assert.Equal(t, "gpt-4o-mini", chat.ModelName)
	assert.Equal(t, "hello from gpt-4o-mini", chat.Content)
	assert.Equal(t, "org-1", chat.Usage.OrganizationID)
	assert.Equal(t, 15, chat.Usage.TotalTokens)
	assert.Equal(t, "voice", chat.Usage.TaskLabel)

	w = doRequest(router, http.MethodGet, "/api/v1/costs?period=day", "org-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var summary models.CostSummary
	decode(t, w, &summary)
	assert.Equal(t, 1, summary.RequestCount)
	assert.Equal(t, 15, summary.TotalTokens)
}

func TestEmbeddingsEndpoint(t *testing.T) {
	router := setupRouter(t, nil)

	tests := []struct {
		name    string
		body    string
		vectors int
	}{
		{
			name:    "single string",
			body:    `{"input": "one"}`,
			vectors: 1,
		},
		{
			name:    "list of strings",
			body:    `{"input": ["one", "two", "three"]}`,
			vectors: 3,
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				w := doRequest(router, http.MethodPost, "/api/v1/embeddings", "org-1", tt.body)
				require.Equal(t, http.StatusOK, w.Code, w.Body.String())

				var emb models.EmbeddingResponse
				decode(t, w, &emb)
				assert.Equal(t, "text-embedding-3-small", emb.ModelName)
				assert.Len(t, emb.Vectors, tt.vectors)
				assert.Zero(t, emb.Usage.OutputTokens)
			},
		)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		providerErr error
		path        string
		org         string
		body        string
		wantStatus  int
		wantCode    string
	}{
		{
			name:       "missing organization",
			path:       "/api/v1/chat/completions",
			body:       `{"messages": [{"role": "user", "content": "hi"}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   codeInvalidRequest,
		},
		{
			name:       "malformed body",
			path:       "/api/v1/chat/completions",
			org:        "org-1",
			body:       `{"messages": "nope"`,
			wantStatus: http.StatusBadRequest,
			wantCode:   codeInvalidRequest,
		},
		{
			name:       "no feasible model",
			path:       "/api/v1/chat/completions",
			org:        "org-1",
			body:       `{"messages": [{"role": "user", "content": "hi"}], "constraints": {"maxCost": 0.0000001}}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   codeNoFeasibleModel,
		},
		{
			name:       "unknown model",
			path:       "/api/v1/chat/completions",
			org:        "org-1",
			body:       `{"messages": [{"role": "user", "content": "hi"}], "options": {"model": "gpt-9"}}`,
			wantStatus: http.StatusNotFound,
			wantCode:   codeModelNotFound,
		},
		{
			name:       "streaming requested",
			path:       "/api/v1/chat/completions",
			org:        "org-1",
			body:       `{"messages": [{"role": "user", "content": "hi"}], "options": {"stream": true}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   codeInvalidRequest,
		},
		{
			name:        "rate limited",
			providerErr: &llm.ProviderError{Kind: llm.ErrRateLimited, Provider: "openai", StatusCode: 429},
			path:        "/api/v1/chat/completions",
			org:         "org-1",
			body:        `{"messages": [{"role": "user", "content": "hi"}]}`,
			wantStatus:  http.StatusTooManyRequests,
			wantCode:    codeRateLimited,
		},
		{
			name:        "provider outage",
			providerErr: &llm.ProviderError{Kind: llm.ErrProviderError, Provider: "openai", StatusCode: 500},
			path:        "/api/v1/embeddings",
			org:         "org-1",
			body:        `{"input": "x"}`,
			wantStatus:  http.StatusBadGateway,
			wantCode:    codeProviderError,
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				router := setupRouter(t, tt.providerErr)

				w := doRequest(router, http.MethodPost, tt.path, tt.org, tt.body)
				assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())

				var body struct {
					Success bool                 `json:"success"`
					Error   models.ErrorResponse `json:"error"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.False(t, body.Success)
				assert.Equal(t, tt.wantCode, body.Error.Code)
			},
		)
	}
}

func TestErrorStatus(t *testing.T) {
	timeout := &llm.ProviderError{Kind: llm.ErrProviderError, Err: context.DeadlineExceeded}

	tests := []struct {
		err  error
		want int
	}{
		{err: selector.ErrNoFeasibleModel, want: http.StatusUnprocessableEntity},
		{err: catalog.ErrModelNotFound, want: http.StatusNotFound},
		{err: llm.ErrInvalidRequest, want: http.StatusBadRequest},
		{err: llm.ErrRateLimited, want: http.StatusTooManyRequests},
		{err: timeout, want: http.StatusGatewayTimeout},
		{err: llm.ErrProviderError, want: http.StatusBadGateway},
		{err: errors.New("disk full"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(
			tt.err.Error(), func(t *testing.T) {
				status, _ := errorStatus(tt.err)
				assert.Equal(t, tt.want, status)
			},
		)
	}
}

func TestModelsHealthAndMetrics(t *testing.T) {
	router := setupRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/models", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var infos []models.ModelInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	assert.Len(t, infos, 5)

	w = doRequest(router, http.MethodGet, "/api/v1/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health models.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)

	doRequest(router, http.MethodPost, "/api/v1/chat/completions", "org-1", `{"messages": [{"role": "user", "content": "hi"}]}`)
	w = doRequest(router, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "llm_router_requests_total")
	assert.Contains(t, w.Body.String(), `model="gpt-4o-mini"`)
}

func TestUnhealthyProviderReturns503(t *testing.T) {
	router := setupRouter(t, errors.New("unreachable"))

	w := doRequest(router, http.MethodGet, "/api/v1/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := setupRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/chat/completions", bytes.NewReader(nil))
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), organizationHeader)

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/chat/completions", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
