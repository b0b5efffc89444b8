// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// UpdatesTotal tracks inbound Telegram updates by kind.
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_total",
			Help: "Total Telegram updates received",
		},
		[]string{"kind"},
	)

	// MessagesTotal tracks conversation turns appended by role.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_messages_total",
			Help: "Total conversation turns appended",
		},
		[]string{"role"},
	)

	// LLMRequestDuration tracks LLM completion duration.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM completion request duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider", "model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// QuotaUsed tracks today's request count against the daily limit.
	QuotaUsed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quota_used",
			Help: "Requests consumed from today's quota",
		},
	)

	// QuotaRejectionsTotal tracks messages refused because the quota ran out.
	QuotaRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quota_rejections_total",
			Help: "Messages rejected due to exhausted daily quota",
		},
	)

	// SnapshotDuration tracks persistence flush duration.
	SnapshotDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapshot_flush_duration_seconds",
			Help:    "State snapshot flush duration",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
	)

	// SnapshotFailuresTotal tracks persistence flush failures.
	SnapshotFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshot_flush_failures_total",
			Help: "State snapshot flush failures",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMRequest records metrics for one LLM completion.
func RecordLLMRequest(provider, model, status string, duration float64, tokensIn, tokensOut int) {
	LLMRequestDuration.WithLabelValues(provider, model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}
