package accounting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"llm-router/internal/llm-router/models"

	"github.com/jinzhu/copier"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// usageRow is the persisted form of models.UsageRecord.
type usageRow struct {
	ID             string    `gorm:"primaryKey;size:36"`
	OrganizationID string    `gorm:"not null;index:idx_usage_org_time,priority:1"`
	Operation      string    `gorm:"not null"`
	ProviderName   string    `gorm:"not null"`
	ModelName      string    `gorm:"not null"`
	InputTokens    int       `gorm:"not null;default:0"`
	OutputTokens   int       `gorm:"not null;default:0"`
	TotalTokens    int       `gorm:"not null;default:0"`
	ComputedCost   float64   `gorm:"not null;default:0"`
	OccurredAt     time.Time `gorm:"not null;index:idx_usage_org_time,priority:2;index"`
	TaskLabel      string
}

func (usageRow) TableName() string {
	return "usage_records"
}

// GormLedger persists usage records in sqlite.
type GormLedger struct {
	db *gorm.DB
}

func NewSQLiteLedger(path string) (*GormLedger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	// sqlite has a single writer; queue callers on one connection
	sqlDB.SetMaxOpenConns(1)
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := db.AutoMigrate(&usageRow{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return &GormLedger{db: db}, nil
}

func (l *GormLedger) Append(ctx context.Context, record models.UsageRecord) error {
	var row usageRow
	if err := copier.Copy(&row, &record); err != nil {
		return fmt.Errorf("map usage record: %w", err)
	}
	row.OccurredAt = row.OccurredAt.UTC()

	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("append usage record %s: %w", record.ID, err)
	}
	return nil
}

func (l *GormLedger) Records(ctx context.Context, organizationID string, window *TimeWindow) ([]models.UsageRecord, error) {
	query := l.db.WithContext(ctx).Where("organization_id = ?", organizationID)
	if window != nil {
		query = query.Where("occurred_at >= ?", window.From.UTC())
		if !window.To.IsZero() {
			query = query.Where("occurred_at < ?", window.To.UTC())
		}
	}

	var rows []usageRow
	if err := query.Order("occurred_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query usage records: %w", err)
	}

	records := make([]models.UsageRecord, 0, len(rows))
	if err := copier.Copy(&records, &rows); err != nil {
		return nil, fmt.Errorf("map usage records: %w", err)
	}
	return records, nil
}

func (l *GormLedger) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result := l.db.WithContext(ctx).Where("occurred_at < ?", cutoff.UTC()).Delete(&usageRow{})
	if result.Error != nil {
		return 0, fmt.Errorf("prune usage records: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (l *GormLedger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
