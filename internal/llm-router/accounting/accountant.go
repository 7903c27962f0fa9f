package accounting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"llm-router/internal/llm-router/catalog"
	"llm-router/internal/llm-router/models"
	"llm-router/pkg/logger"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

var ErrInvalidUsage = errors.New("invalid usage")

// Usage is what a completed provider call reports.
type Usage struct {
	OrganizationID string
	Operation      string
	InputTokens    int
	OutputTokens   int
	TaskLabel      string
}

// Accountant prices usage and keeps the per-organization ledger.
type Accountant struct {
	ledger Ledger
	now    func() time.Time

	mu        sync.Mutex
	scheduler *cron.Cron
}

func NewAccountant(ledger Ledger) *Accountant {
	return &Accountant{
		ledger: ledger,
		now:    time.Now,
	}
}

// RecordUsage prices one completed call and appends it to the ledger.
func (a *Accountant) RecordUsage(ctx context.Context, model catalog.ModelDescriptor, usage Usage) (models.UsageRecord, error) {
	if usage.OrganizationID == "" {
		return models.UsageRecord{}, fmt.Errorf("%w: organization id is required", ErrInvalidUsage)
	}
	if usage.InputTokens < 0 || usage.OutputTokens < 0 {
		return models.UsageRecord{}, fmt.Errorf(
			"%w: negative token counts %d/%d", ErrInvalidUsage, usage.InputTokens, usage.OutputTokens,
		)
	}
	if usage.Operation == models.OperationEmbeddings && usage.OutputTokens != 0 {
		return models.UsageRecord{}, fmt.Errorf("%w: embeddings report no output tokens", ErrInvalidUsage)
	}

	record := models.UsageRecord{
		ID:             uuid.New().String(),
		OrganizationID: usage.OrganizationID,
		Operation:      usage.Operation,
		ProviderName:   model.ProviderName,
		ModelName:      model.ModelName,
		InputTokens:    usage.InputTokens,
		OutputTokens:   usage.OutputTokens,
		TotalTokens:    usage.InputTokens + usage.OutputTokens,
		ComputedCost:   ComputeCost(model, usage.InputTokens, usage.OutputTokens),
		OccurredAt:     a.now().UTC(),
		TaskLabel:      usage.TaskLabel,
	}

	if err := a.ledger.Append(ctx, record); err != nil {
		return models.UsageRecord{}, err
	}
	return record, nil
}

// Summarize folds the organization's records, optionally limited to window.
func (a *Accountant) Summarize(ctx context.Context, organizationID string, window *TimeWindow) (models.CostSummary, error) {
	records, err := a.ledger.Records(ctx, organizationID, window)
	if err != nil {
		return models.CostSummary{}, err
	}

	summary := models.CostSummary{
		OrganizationID: organizationID,
		CostByModel:    make(map[string]float64),
	}
	if window != nil {
		from := window.From
		summary.From = &from
		if !window.To.IsZero() {
			to := window.To
			summary.To = &to
		}
	}

	for _, r := range records {
		summary.TotalCost += r.ComputedCost
		summary.TotalTokens += r.TotalTokens
		summary.RequestCount++
		summary.CostByModel[r.ModelName] += r.ComputedCost
	}
	return summary, nil
}

// SummarizePeriod parses period relative to the accountant's clock.
func (a *Accountant) SummarizePeriod(ctx context.Context, organizationID, period string) (models.CostSummary, error) {
	window, err := ParsePeriod(period, a.now())
	if err != nil {
		return models.CostSummary{}, err
	}
	summary, err := a.Summarize(ctx, organizationID, window)
	if err != nil {
		return models.CostSummary{}, err
	}
	summary.Period = period
	return summary, nil
}

// PruneOlderThan removes records older than retention.
func (a *Accountant) PruneOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	return a.ledger.Prune(ctx, a.now().Add(-retention))
}

// StartRetention schedules PruneOlderThan on a cron spec such as "@daily" or
// "0 3 * * *". It is a no-op when retentionDays is not positive.
func (a *Accountant) StartRetention(schedule string, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	retention := time.Duration(retentionDays) * 24 * time.Hour

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.scheduler != nil {
		return errors.New("retention already scheduled")
	}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(
		schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			removed, err := a.PruneOlderThan(ctx, retention)
			if err != nil {
				logger.Error("Ledger pruning failed", "error", err)
				return
			}
			logger.Info("Ledger pruned", "removed", removed, "retention_days", retentionDays)
		},
	); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}

	c.Start()
	a.scheduler = c
	return nil
}

// Close stops the retention job, waits for a running prune, then closes the
// ledger.
func (a *Accountant) Close() error {
	a.mu.Lock()
	c := a.scheduler
	a.scheduler = nil
	a.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	return a.ledger.Close()
}
