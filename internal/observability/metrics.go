// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the pipeline. A nil *Metrics is
// valid everywhere one is accepted: every Record method is a no-op on nil,
// so components never branch on whether collection is enabled.
type Metrics struct {
	// Session metrics
	SessionsTotal   *prometheus.CounterVec
	SessionDuration prometheus.Histogram

	// Pipeline metrics
	AccountsProcessed *prometheus.CounterVec
	RunsTotal         prometheus.Counter

	// Persistence metrics
	StoreWrites    *prometheus.CounterVec
	FallbackWrites prometheus.Counter
}

// NewMetrics creates a Metrics instance with all metrics registered on the
// default registry. Call it once per process.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "guimt5"
	}

	return &Metrics{
		SessionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of terminal sessions by final status",
		}, []string{"status"}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Terminal session duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		AccountsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_processed_total",
			Help:      "Total number of accounts processed by outcome",
		}, []string{"outcome"}),
		RunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs",
		}),

		StoreWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_writes_total",
			Help:      "Total number of report store writes by result",
		}, []string{"result"}),
		FallbackWrites: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_writes_total",
			Help:      "Total number of reports written to the local fallback",
		}),
	}
}

// RecordSession records a resolved terminal session. Status is "completed"
// or the failure kind.
func (m *Metrics) RecordSession(status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SessionsTotal.WithLabelValues(strings.ToLower(status)).Inc()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordAccount records one finished account by outcome status.
func (m *Metrics) RecordAccount(outcome string) {
	if m == nil {
		return
	}
	m.AccountsProcessed.WithLabelValues(strings.ToLower(outcome)).Inc()
}

// RecordRun records one pipeline invocation.
func (m *Metrics) RecordRun() {
	if m == nil {
		return
	}
	m.RunsTotal.Inc()
}

// RecordStoreWrite records a report store write attempt.
func (m *Metrics) RecordStoreWrite(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.StoreWrites.WithLabelValues(result).Inc()
}

// RecordFallbackWrite records a report preserved in the local fallback
// directory.
func (m *Metrics) RecordFallbackWrite() {
	if m == nil {
		return
	}
	m.FallbackWrites.Inc()
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
