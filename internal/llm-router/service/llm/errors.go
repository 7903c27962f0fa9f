package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrProviderError is a transient network or server failure. Retryable.
	ErrProviderError = errors.New("provider error")
	// ErrRateLimited is provider-side throttling. Retryable with backoff.
	ErrRateLimited = errors.New("rate limited by provider")
	// ErrInvalidRequest is a request the provider will never accept. Not retryable.
	ErrInvalidRequest = errors.New("invalid request")
)

// ProviderError carries the classified kind plus the context needed to log it.
type ProviderError struct {
	Kind       error
	Provider   string
	Model      string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Provider, e.Model)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" status %d", e.StatusCode)
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsRetryable reports whether a caller may repeat the call. Context
// cancellation and expired deadlines are not retryable: the same context
// would fail again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrProviderError)
}

// kindForStatus maps an HTTP status code to an error kind.
func kindForStatus(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status == http.StatusRequestTimeout:
		return ErrProviderError
	case status >= 500:
		return ErrProviderError
	case status >= 400:
		return ErrInvalidRequest
	default:
		return ErrProviderError
	}
}

func newProviderError(provider, model string, status int, err error) *ProviderError {
	return &ProviderError{
		Kind:       kindForStatus(status),
		Provider:   provider,
		Model:      model,
		StatusCode: status,
		Err:        err,
	}
}

func invalidRequest(provider, model, format string, args ...interface{}) *ProviderError {
	return &ProviderError{
		Kind:     ErrInvalidRequest,
		Provider: provider,
		Model:    model,
		Err:      fmt.Errorf(format, args...),
	}
}

// classifyTransportError handles failures that carry no HTTP status:
// cancellation, deadlines and network errors all count as provider errors.
func classifyTransportError(provider, model string, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return &ProviderError{Kind: ErrProviderError, Provider: provider, Model: model, Err: err}
}
