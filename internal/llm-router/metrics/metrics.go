package metrics

import (
	"errors"
	"time"

	"llm-router/internal/llm-router/models"
	"llm-router/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "llm_router"

// Request outcomes.
const (
	StatusSuccess    = "success"
	StatusNoFeasible = "no_feasible_model"
	StatusInvalid    = "invalid_request"
	StatusRateLimit  = "rate_limited"
	StatusError      = "provider_error"
	StatusCanceled   = "canceled"
)

// Recorder exports routing counters. A nil *Recorder records nothing.
type Recorder struct {
	requests *prometheus.CounterVec
	tokens   *prometheus.CounterVec
	cost     *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A collector that is
// already registered is reused.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Routed requests by operation, provider, model and outcome.",
			},
			[]string{"operation", "provider", "model", "status"},
		),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_total",
				Help:      "Tokens reported by providers.",
			},
			[]string{"provider", "model", "direction"},
		),
		cost: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cost_total",
				Help:      "Computed cost of completed calls in currency units.",
			},
			[]string{"provider", "model"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_latency_seconds",
				Help:      "Wall-clock time of provider calls.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"operation", "provider"},
		),
	}

	r.requests = registerSafely(reg, r.requests)
	r.tokens = registerSafely(reg, r.tokens)
	r.cost = registerSafely(reg, r.cost)
	r.latency = registerSafely(reg, r.latency)
	return r
}

func registerSafely[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		logger.Error("Failed to register prometheus collector", "error", err)
	}
	return c
}

func (r *Recorder) ObserveRequest(operation, provider, model, status string) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(operation, provider, model, status).Inc()
}

func (r *Recorder) ObserveUsage(record models.UsageRecord) {
	if r == nil {
		return
	}
	r.tokens.WithLabelValues(record.ProviderName, record.ModelName, "input").Add(float64(record.InputTokens))
	if record.OutputTokens > 0 {
		r.tokens.WithLabelValues(record.ProviderName, record.ModelName, "output").Add(float64(record.OutputTokens))
	}
	r.cost.WithLabelValues(record.ProviderName, record.ModelName).Add(record.ComputedCost)
}

func (r *Recorder) ObserveLatency(operation, provider string, d time.Duration) {
	if r == nil {
		return
	}
	r.latency.WithLabelValues(operation, provider).Observe(d.Seconds())
}
