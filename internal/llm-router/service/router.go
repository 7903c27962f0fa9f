package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"llm-router/internal/llm-router/accounting"
	"llm-router/internal/llm-router/catalog"
	"llm-router/internal/llm-router/metrics"
	"llm-router/internal/llm-router/models"
	"llm-router/internal/llm-router/selector"
	"llm-router/internal/llm-router/service/llm"
	"llm-router/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const healthTimeout = 5 * time.Second

// Defaults fill in whatever a caller leaves out of its routing preferences.
type Defaults struct {
	MaxCost              float64
	MaxLatencyMillis     int
	MinimumQualityTier   catalog.QualityTier
	RequiredCapabilities []catalog.Capability
}

// DefaultRouting asks for a medium-quality reasoning model with no ceilings.
func DefaultRouting() Defaults {
	return Defaults{
		MinimumQualityTier:   catalog.QualityMedium,
		RequiredCapabilities: []catalog.Capability{catalog.CapabilityReasoning},
	}
}

// RouterService is the single entry point for routed model calls. Each call
// moves through constructing, selecting, executing and accounting; a failure
// in any stage is returned as a *RouteError and nothing is recorded.
type RouterService struct {
	catalog    *catalog.Catalog
	executor   *llm.Executor
	accountant *accounting.Accountant
	defaults   Defaults
	metrics    *metrics.Recorder
}

// NewRouterService wires the facade. recorder may be nil.
func NewRouterService(
	cat *catalog.Catalog,
	executor *llm.Executor,
	accountant *accounting.Accountant,
	defaults Defaults,
	recorder *metrics.Recorder,
) *RouterService {
	return &RouterService{
		catalog:    cat,
		executor:   executor,
		accountant: accountant,
		defaults:   defaults,
		metrics:    recorder,
	}
}

func (s *RouterService) ChatCompletion(
	ctx context.Context, req models.ChatRequest, organizationID string,
) (*models.ChatResponse, error) {
	rerr := &RouteError{Operation: models.OperationChat, OrganizationID: organizationID}
	if req.Constraints != nil {
		rerr.TaskLabel = req.Constraints.TaskLabel
	}

	rerr.Stage = StageConstructing
	if organizationID == "" {
		return nil, s.fail(rerr, catalog.ModelDescriptor{}, invalid("organization id is required"))
	}
	constraints, err := s.chatConstraints(req.Constraints)
	if err != nil {
		return nil, s.fail(rerr, catalog.ModelDescriptor{}, err)
	}

	rerr.Stage = StageSelecting
	selection := "routed"
	var model catalog.ModelDescriptor
	if req.Options.Model != "" {
		selection = "explicit"
		rerr.Model = req.Options.Model
		model, err = s.catalog.GetModel(req.Options.Model)
		if err == nil && model.IsEmbeddingModel() {
			err = invalid("model %s only serves embeddings", model.ModelName)
		}
	} else {
		model, err = selector.Select(s.catalog, constraints)
	}
	if err != nil {
		return nil, s.fail(rerr, model, err)
	}
	rerr.Model = model.ModelName

	rerr.Stage = StageExecuting
	exec, err := s.executor.ExecuteChat(
		ctx, model, req.Messages, llm.GenerationParams{
			MaxTokens:   req.Options.MaxTokens,
			Temperature: req.Options.Temperature,
			TopP:        req.Options.TopP,
			Stream:      req.Options.Stream,
		},
	)
	if err != nil {
		return nil, s.fail(rerr, model, err)
	}
	s.metrics.ObserveLatency(models.OperationChat, model.ProviderName, exec.Latency)

	rerr.Stage = StageAccounting
	record, err := s.record(
		ctx, model, accounting.Usage{
			OrganizationID: organizationID,
			Operation:      models.OperationChat,
			InputTokens:    exec.InputTokens,
			OutputTokens:   exec.OutputTokens,
			TaskLabel:      constraints.TaskLabel,
		},
	)
	if err != nil {
		return nil, s.fail(rerr, model, err)
	}

	metadata := map[string]interface{}{
		"finishReason": exec.FinishReason,
		"maxTokens":    exec.MaxTokens,
		"selection":    selection,
	}
	if exec.ID != "" {
		metadata["providerRequestId"] = exec.ID
	}
	if constraints.LocaleHint != "" {
		metadata["localeHint"] = constraints.LocaleHint
	}

	return &models.ChatResponse{
		ID:            uuid.New().String(),
		ProviderName:  model.ProviderName,
		ModelName:     model.ModelName,
		Content:       exec.Content,
		Usage:         record,
		LatencyMillis: exec.Latency.Milliseconds(),
		Metadata:      metadata,
	}, nil
}

func (s *RouterService) GenerateEmbeddings(
	ctx context.Context, req models.EmbeddingRequest, organizationID string,
) (*models.EmbeddingResponse, error) {
	rerr := &RouteError{
		Operation:      models.OperationEmbeddings,
		OrganizationID: organizationID,
		TaskLabel:      req.TaskLabel,
		Stage:          StageConstructing,
	}
	if organizationID == "" {
		return nil, s.fail(rerr, catalog.ModelDescriptor{}, invalid("organization id is required"))
	}
	if len(req.Input) == 0 {
		return nil, s.fail(rerr, catalog.ModelDescriptor{}, invalid("input is required"))
	}
	constraints := selector.RoutingConstraints{
		MaxCost:              s.defaults.MaxCost,
		MaxLatencyMillis:     s.defaults.MaxLatencyMillis,
		MinimumQualityTier:   catalog.QualityLow,
		RequiredCapabilities: []catalog.Capability{catalog.CapabilityEmbeddings},
		TaskLabel:            req.TaskLabel,
	}

	rerr.Stage = StageSelecting
	model, err := selector.Select(s.catalog, constraints)
	if err != nil {
		return nil, s.fail(rerr, model, err)
	}
	rerr.Model = model.ModelName

	rerr.Stage = StageExecuting
	exec, err := s.executor.ExecuteEmbeddings(ctx, model, req.Input)
	if err != nil {
		return nil, s.fail(rerr, model, err)
	}
	s.metrics.ObserveLatency(models.OperationEmbeddings, model.ProviderName, exec.Latency)

	rerr.Stage = StageAccounting
	record, err := s.record(
		ctx, model, accounting.Usage{
			OrganizationID: organizationID,
			Operation:      models.OperationEmbeddings,
			InputTokens:    exec.InputTokens,
			TaskLabel:      req.TaskLabel,
		},
	)
	if err != nil {
		return nil, s.fail(rerr, model, err)
	}

	dimensions := 0
	if len(exec.Vectors) > 0 {
		dimensions = len(exec.Vectors[0])
	}

	return &models.EmbeddingResponse{
		ID:            uuid.New().String(),
		ProviderName:  model.ProviderName,
		ModelName:     model.ModelName,
		Vectors:       exec.Vectors,
		Usage:         record,
		LatencyMillis: exec.Latency.Milliseconds(),
		Metadata: map[string]interface{}{
			"dimensions": dimensions,
		},
	}, nil
}

// GetCostSummary folds the organization's ledger over period. See
// accounting.ParsePeriod for the accepted values.
func (s *RouterService) GetCostSummary(
	ctx context.Context, organizationID, period string,
) (models.CostSummary, error) {
	if organizationID == "" {
		return models.CostSummary{}, invalid("organization id is required")
	}

	summary, err := s.accountant.SummarizePeriod(ctx, organizationID, period)
	if errors.Is(err, accounting.ErrInvalidPeriod) {
		return models.CostSummary{}, invalid("%v", err)
	}
	return summary, err
}

func (s *RouterService) GetAvailableModels() []models.ModelInfo {
	descriptors := s.catalog.ListModels()
	infos := make([]models.ModelInfo, 0, len(descriptors))
	for _, m := range descriptors {
		capabilities := make([]string, 0, len(m.Capabilities))
		for _, c := range m.Capabilities {
			capabilities = append(capabilities, string(c))
		}
		infos = append(
			infos, models.ModelInfo{
				ID:                    m.ModelName,
				Provider:              m.ProviderName,
				Capabilities:          capabilities,
				MaxTokens:             m.MaxContextTokens,
				QualityTier:           m.QualityTier.String(),
				ExpectedLatencyMillis: m.ExpectedLatencyMillis,
				Pricing: models.Pricing{
					InputPrice:  m.CostPerThousandInputTokens,
					OutputPrice: m.CostPerThousandOutputTokens,
					Currency:    "USD",
				},
			},
		)
	}
	return infos
}

// GetHealth pings every configured provider concurrently.
func (s *RouterService) GetHealth(ctx context.Context) models.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	var (
		mu       sync.Mutex
		statuses = make(map[string]models.ProviderStatus)
		g        errgroup.Group
	)
	for _, name := range s.executor.ProviderNames() {
		provider, _ := s.executor.Provider(name)
		g.Go(
			func() error {
				start := time.Now()
				err := provider.Ping(ctx)
				status := models.ProviderStatus{
					Status:  "available",
					Latency: time.Since(start).Milliseconds(),
				}
				if err != nil {
					status.Status = "unavailable"
					status.Error = err.Error()
				}

				mu.Lock()
				statuses[name] = status
				mu.Unlock()
				return nil
			},
		)
	}
	_ = g.Wait()

	allHealthy := true
	for _, st := range statuses {
		if st.Status != "available" {
			allHealthy = false
		}
	}

	return models.HealthStatus{
		Status:    map[bool]string{true: "healthy", false: "degraded"}[allHealthy],
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Providers: statuses,
	}
}

func (s *RouterService) chatConstraints(prefs *models.RoutingPreferences) (selector.RoutingConstraints, error) {
	c := selector.RoutingConstraints{
		MaxCost:              s.defaults.MaxCost,
		MaxLatencyMillis:     s.defaults.MaxLatencyMillis,
		MinimumQualityTier:   s.defaults.MinimumQualityTier,
		RequiredCapabilities: s.defaults.RequiredCapabilities,
	}
	if prefs != nil {
		if prefs.MaxCost != nil {
			c.MaxCost = *prefs.MaxCost
		}
		if prefs.MaxLatencyMillis != nil {
			c.MaxLatencyMillis = *prefs.MaxLatencyMillis
		}
		if prefs.MinimumQuality != "" {
			tier, err := catalog.ParseQualityTier(prefs.MinimumQuality)
			if err != nil {
				return c, invalid("%v", err)
			}
			c.MinimumQualityTier = tier
		}
		if len(prefs.RequiredCapabilities) > 0 {
			c.RequiredCapabilities = make([]catalog.Capability, 0, len(prefs.RequiredCapabilities))
			for _, name := range prefs.RequiredCapabilities {
				c.RequiredCapabilities = append(
					c.RequiredCapabilities, catalog.Capability(strings.ToLower(strings.TrimSpace(name))),
				)
			}
		}
		c.TaskLabel = prefs.TaskLabel
		c.LocaleHint = prefs.LocaleHint
	}

	if err := c.Validate(); err != nil {
		return c, invalid("%v", err)
	}
	return c, nil
}

// record appends usage for a call that already completed, so a caller
// cancelling now must not drop it from the ledger.
func (s *RouterService) record(
	ctx context.Context, model catalog.ModelDescriptor, usage accounting.Usage,
) (models.UsageRecord, error) {
	record, err := s.accountant.RecordUsage(context.WithoutCancel(ctx), model, usage)
	if err != nil {
		return record, err
	}

	s.metrics.ObserveRequest(usage.Operation, model.ProviderName, model.ModelName, metrics.StatusSuccess)
	s.metrics.ObserveUsage(record)
	logger.Info(
		"Routed request completed",
		"operation", usage.Operation,
		"organization_id", usage.OrganizationID,
		"provider", model.ProviderName,
		"model", model.ModelName,
		"task", usage.TaskLabel,
		"input_tokens", record.InputTokens,
		"output_tokens", record.OutputTokens,
		"cost", record.ComputedCost,
	)
	return record, nil
}

func (s *RouterService) fail(rerr *RouteError, model catalog.ModelDescriptor, err error) error {
	rerr.Err = err
	status := outcome(err)
	s.metrics.ObserveRequest(rerr.Operation, model.ProviderName, model.ModelName, status)
	logger.Warn(
		"Routed request failed",
		"operation", rerr.Operation,
		"stage", string(rerr.Stage),
		"status", status,
		"organization_id", rerr.OrganizationID,
		"model", model.ModelName,
		"task", rerr.TaskLabel,
		"retryable", llm.IsRetryable(err),
		"error", err.Error(),
	)
	return rerr
}
