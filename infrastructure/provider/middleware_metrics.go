package provider

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for outbound summarization calls.
// One instance is shared by every adapter through MetricsMiddleware.
type Metrics struct {
	latency  *prometheus.HistogramVec
	requests *prometheus.CounterVec
	tokens   *prometheus.CounterVec
}

// NewMetrics registers the summarization metrics with reg and returns the
// collector set.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "summarize_duration_seconds",
				Help:    "End-to-end duration of summarization calls, including retries and polls.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "model", "status"},
		),
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "summarize_requests_total",
				Help: "Total number of summarization calls by outcome.",
			},
			[]string{"provider", "model", "status"},
		),
		tokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "summarize_tokens_total",
				Help: "Token usage reported by vendors, by kind.",
			},
			[]string{"provider", "model", "kind"},
		),
	}
}

// metricsProvider records latency, outcome, and token usage around
// Summarize while delegating everything else to the wrapped adapter.
type metricsProvider struct {
	SummaryProvider
	metrics *Metrics
}

// MetricsMiddleware creates middleware that records Prometheus metrics for
// every summarization call.
func MetricsMiddleware(metrics *Metrics) Middleware {
	return func(next SummaryProvider) SummaryProvider {
		return &metricsProvider{SummaryProvider: next, metrics: metrics}
	}
}

func (m *metricsProvider) Summarize(ctx context.Context, text, modelID string) Outcome {
	start := time.Now()
	outcome := m.SummaryProvider.Summarize(ctx, text, modelID)

	status := "success"
	if !outcome.Success {
		status = "failure"
	}
	provider := m.Key()

	m.metrics.latency.WithLabelValues(provider, modelID, status).
		Observe(time.Since(start).Seconds())
	m.metrics.requests.WithLabelValues(provider, modelID, status).Inc()

	if outcome.InputTokens != nil {
		m.metrics.tokens.WithLabelValues(provider, modelID, "input").
			Add(float64(*outcome.InputTokens))
	}
	if outcome.InternalTokens != nil {
		m.metrics.tokens.WithLabelValues(provider, modelID, "internal").
			Add(float64(*outcome.InternalTokens))
	}
	if outcome.OutputTokens != nil {
		m.metrics.tokens.WithLabelValues(provider, modelID, "output").
			Add(float64(*outcome.OutputTokens))
	}

	return outcome
}
