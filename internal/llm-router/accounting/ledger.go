package accounting

import (
	"context"
	"sync"
	"time"

	"llm-router/internal/llm-router/models"
)

// Ledger is the append-only store of usage records. Implementations must be
// safe for concurrent use, and Records must return a consistent snapshot.
type Ledger interface {
	Append(ctx context.Context, record models.UsageRecord) error
	// Records returns the organization's records inside window, oldest first.
	// A nil window matches everything.
	Records(ctx context.Context, organizationID string, window *TimeWindow) ([]models.UsageRecord, error)
	// Prune deletes records that occurred before cutoff.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}

// MemoryLedger keeps records in a slice guarded by a RWMutex.
type MemoryLedger struct {
	mu      sync.RWMutex
	records []models.UsageRecord
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) Append(_ context.Context, record models.UsageRecord) error {
	l.mu.Lock()
	l.records = append(l.records, record)
	l.mu.Unlock()
	return nil
}

func (l *MemoryLedger) Records(_ context.Context, organizationID string, window *TimeWindow) ([]models.UsageRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []models.UsageRecord
	for _, r := range l.records {
		if r.OrganizationID != organizationID {
			continue
		}
		if window != nil && !window.Contains(r.OccurredAt) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (l *MemoryLedger) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.records[:0]
	for _, r := range l.records {
		if !r.OccurredAt.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	removed := int64(len(l.records) - len(kept))
	// drop references held past the new length
	for i := len(kept); i < len(l.records); i++ {
		l.records[i] = models.UsageRecord{}
	}
	l.records = kept
	return removed, nil
}

func (l *MemoryLedger) Close() error {
	return nil
}
