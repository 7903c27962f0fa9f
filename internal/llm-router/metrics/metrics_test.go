package metrics

import (
	"testing"
	"time"

	"llm-router/internal/llm-router/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.ObserveRequest(models.OperationChat, "openai", "gpt-4o-mini", StatusSuccess)
	r.ObserveRequest(models.OperationChat, "openai", "gpt-4o-mini", StatusSuccess)
	r.ObserveRequest(models.OperationChat, "", "", StatusNoFeasible)
	r.ObserveUsage(
		models.UsageRecord{
			ProviderName: "openai", ModelName: "gpt-4o-mini", InputTokens: 100, OutputTokens: 50, ComputedCost: 0.25,
		},
	)
	r.ObserveUsage(
		models.UsageRecord{
			ProviderName: "openai", ModelName: "text-embedding-3-small", InputTokens: 10, ComputedCost: 0.5,
		},
	)
	r.ObserveLatency(models.OperationChat, "openai", 300*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.requests.WithLabelValues("chat", "openai", "gpt-4o-mini", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues("chat", "", "", StatusNoFeasible)))
	assert.Equal(t, 100.0, testutil.ToFloat64(r.tokens.WithLabelValues("openai", "gpt-4o-mini", "input")))
	assert.Equal(t, 50.0, testutil.ToFloat64(r.tokens.WithLabelValues("openai", "gpt-4o-mini", "output")))
	assert.Equal(t, 0.25, testutil.ToFloat64(r.cost.WithLabelValues("openai", "gpt-4o-mini")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
	// embeddings never create an output series
	assert.Equal(t, 3, testutil.CollectAndCount(r.tokens))
}

func TestNewReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := New(reg)
	second := New(reg)

	second.ObserveRequest("chat", "groq", "llama-3.1-8b-instant", StatusSuccess)
	assert.Equal(t, 1.0, testutil.ToFloat64(first.requests.WithLabelValues("chat", "groq", "llama-3.1-8b-instant", StatusSuccess)))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(
		t, func() {
			r.ObserveRequest("chat", "p", "m", StatusSuccess)
			r.ObserveUsage(models.UsageRecord{})
			r.ObserveLatency("chat", "p", time.Second)
		},
	)
}
