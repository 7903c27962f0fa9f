package models

import (
	"encoding/json"
	"errors"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	OperationChat       = "chat"
	OperationEmbeddings = "embeddings"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// ChatOptions are the caller-facing generation options. Nil pointers mean
// "use the default".
type ChatOptions struct {
	Model       string   `json:"model,omitempty"`
	MaxTokens   int      `json:"maxTokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"topP,omitempty"`
	Stream      bool     `json:"stream,omitempty"`
}

// RoutingPreferences is the wire form of routing constraints. Omitted fields
// fall back to the process-wide defaults.
type RoutingPreferences struct {
	MaxCost              *float64 `json:"maxCost,omitempty"`
	MaxLatencyMillis     *int     `json:"maxLatencyMillis,omitempty"`
	MinimumQuality       string   `json:"minimumQuality,omitempty"`
	RequiredCapabilities []string `json:"requiredCapabilities,omitempty"`
	TaskLabel            string   `json:"taskLabel,omitempty"`
	LocaleHint           string   `json:"localeHint,omitempty"`
}

type ChatRequest struct {
	Messages    []ChatMessage       `json:"messages"`
	Options     ChatOptions         `json:"options,omitempty"`
	Constraints *RoutingPreferences `json:"constraints,omitempty"`
}

// EmbeddingInput accepts either a single string or a list of strings.
type EmbeddingInput []string

func (in *EmbeddingInput) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*in = EmbeddingInput{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("input must be a string or an array of strings")
	}
	*in = many
	return nil
}

type EmbeddingRequest struct {
	Input     EmbeddingInput `json:"input"`
	TaskLabel string         `json:"taskLabel,omitempty"`
}

// UsageRecord is one ledger entry. ComputedCost is stored unrounded.
type UsageRecord struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	Operation      string    `json:"operation"`
	ProviderName   string    `json:"providerName"`
	ModelName      string    `json:"modelName"`
	InputTokens    int       `json:"inputTokens"`
	OutputTokens   int       `json:"outputTokens"`
	TotalTokens    int       `json:"totalTokens"`
	ComputedCost   float64   `json:"computedCost"`
	OccurredAt     time.Time `json:"occurredAt"`
	TaskLabel      string    `json:"taskLabel,omitempty"`
}

type ChatResponse struct {
	ID            string                 `json:"id"`
	ProviderName  string                 `json:"providerName"`
	ModelName     string                 `json:"modelName"`
	Content       string                 `json:"content"`
	Usage         UsageRecord            `json:"usage"`
	LatencyMillis int64                  `json:"latencyMillis"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

type EmbeddingResponse struct {
	ID            string                 `json:"id"`
	ProviderName  string                 `json:"providerName"`
	ModelName     string                 `json:"modelName"`
	Vectors       [][]float32            `json:"vectors"`
	Usage         UsageRecord            `json:"usage"`
	LatencyMillis int64                  `json:"latencyMillis"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

type CostSummary struct {
	OrganizationID string             `json:"organizationId"`
	Period         string             `json:"period,omitempty"`
	From           *time.Time         `json:"from,omitempty"`
	To             *time.Time         `json:"to,omitempty"`
	TotalCost      float64            `json:"totalCost"`
	TotalTokens    int                `json:"totalTokens"`
	RequestCount   int                `json:"requestCount"`
	CostByModel    map[string]float64 `json:"costByModel"`
}

type ModelInfo struct {
	ID                    string   `json:"id"`
	Provider              string   `json:"provider"`
	Capabilities          []string `json:"capabilities"`
	MaxTokens             int      `json:"maxTokens"`
	QualityTier           string   `json:"qualityTier"`
	ExpectedLatencyMillis int      `json:"expectedLatencyMillis"`
	Pricing               Pricing  `json:"pricing"`
}

// Pricing is per 1000 tokens.
type Pricing struct {
	InputPrice  float64 `json:"inputPrice"`
	OutputPrice float64 `json:"outputPrice"`
	Currency    string  `json:"currency"`
}

type HealthStatus struct {
	Status    string                    `json:"status"`
	Timestamp string                    `json:"timestamp"`
	Providers map[string]ProviderStatus `json:"providers"`
}

type ProviderStatus struct {
	Status  string `json:"status"`
	Latency int64  `json:"latency"`
	Error   string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func NewErrorResponse(code string, message string, details interface{}) ErrorResponse {
	return ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	}
}
