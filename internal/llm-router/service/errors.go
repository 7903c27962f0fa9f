package service

import (
	"context"
	"errors"
	"fmt"

	"llm-router/internal/llm-router/catalog"
	"llm-router/internal/llm-router/metrics"
	"llm-router/internal/llm-router/selector"
	"llm-router/internal/llm-router/service/llm"
)

// Stage is the request state a failure happened in.
type Stage string

const (
	StageConstructing Stage = "constructing"
	StageSelecting    Stage = "selecting"
	StageExecuting    Stage = "executing"
	StageAccounting   Stage = "accounting"
)

// RouteError carries the context a caller needs to log a failed request and
// decide on a retry. It unwraps to the underlying sentinel, so
// errors.Is(err, llm.ErrRateLimited) and llm.IsRetryable keep working.
type RouteError struct {
	Stage          Stage
	Operation      string
	OrganizationID string
	Model          string
	TaskLabel      string
	Err            error
}

func (e *RouteError) Error() string {
	msg := fmt.Sprintf("%s failed while %s (organization=%s", e.Operation, e.Stage, e.OrganizationID)
	if e.Model != "" {
		msg += " model=" + e.Model
	}
	if e.TaskLabel != "" {
		msg += " task=" + e.TaskLabel
	}
	return msg + "): " + e.Err.Error()
}

func (e *RouteError) Unwrap() error {
	return e.Err
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", llm.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// outcome maps an error to the metrics status label.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.StatusSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.StatusCanceled
	case errors.Is(err, selector.ErrNoFeasibleModel):
		return metrics.StatusNoFeasible
	case errors.Is(err, llm.ErrInvalidRequest), errors.Is(err, catalog.ErrModelNotFound):
		return metrics.StatusInvalid
	case errors.Is(err, llm.ErrRateLimited):
		return metrics.StatusRateLimit
	default:
		return metrics.StatusError
	}
}
