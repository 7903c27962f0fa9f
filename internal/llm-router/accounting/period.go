package accounting

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidPeriod = errors.New("invalid period")

// TimeWindow is the half-open interval [From, To). A zero To leaves the
// window open-ended.
type TimeWindow struct {
	From time.Time
	To   time.Time
}

func (w TimeWindow) Contains(t time.Time) bool {
	if t.Before(w.From) {
		return false
	}
	return w.To.IsZero() || t.Before(w.To)
}

// ParsePeriod turns a summary period into a window ending at now.
//
//	"" or "all"  no window
//	"day"        since 00:00 UTC today
//	"week"       since Monday 00:00 UTC
//	"month"      since the 1st of the month, 00:00 UTC
//	"24h", "90m" any Go duration, meaning the last d
func ParsePeriod(period string, now time.Time) (*TimeWindow, error) {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch strings.ToLower(strings.TrimSpace(period)) {
	case "", "all":
		return nil, nil
	case "day":
		return &TimeWindow{From: day}, nil
	case "week":
		offset := (int(day.Weekday()) + 6) % 7
		return &TimeWindow{From: day.AddDate(0, 0, -offset)}, nil
	case "month":
		return &TimeWindow{From: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)}, nil
	}

	d, err := time.ParseDuration(period)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown period %q", ErrInvalidPeriod, period)
	}
	if d <= 0 {
		return nil, fmt.Errorf("%w: period %q must be positive", ErrInvalidPeriod, period)
	}
	return &TimeWindow{From: now.Add(-d)}, nil
}
