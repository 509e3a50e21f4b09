// Package metrics exposes Prometheus metrics for the ledger.
package metrics

import (
	"errors"
	"strings"
	"time"

	apperrors "tripbudget/internal/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the ledger.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Registry owns these metrics. Exposed so /metrics can serve it.
	Registry *prometheus.Registry

	operations      *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	publishFailures *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	drift           prometheus.Gauge
	orphans         prometheus.Gauge
}

// New creates a dedicated registry and registers all ledger metrics in it.
// A private registry lets tests call New more than once.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_operations_total",
				Help: "Ledger operations by name and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_operation_duration_seconds",
				Help:    "Duration of ledger operations, store round trips included.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		publishFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_event_publish_failures_total",
				Help: "Events that could not be published after commit.",
			},
			[]string{"type"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_http_requests_total",
				Help: "HTTP requests by route and status class.",
			},
			[]string{"method", "route", "status"},
		),
		drift: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_spent_drift_categories",
			Help: "Categories whose stored spent amount disagreed with their expenses at the last audit.",
		}),
		orphans: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_orphaned_expenses",
			Help: "Expenses pointing at a missing budget or category at the last audit.",
		}),
	}
}

// ObserveOperation records one ledger operation and how it ended.
func (m *Metrics) ObserveOperation(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, Outcome(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrPublishFailure counts an event that was dropped.
func (m *Metrics) IncrPublishFailure(eventType string) {
	if m == nil {
		return
	}
	m.publishFailures.WithLabelValues(eventType).Inc()
}

// ObserveHTTPRequest counts one served request.
func (m *Metrics) ObserveHTTPRequest(method, route, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
}

// SetAuditResult records the outcome of the last ledger audit.
func (m *Metrics) SetAuditResult(driftedCategories, orphanedExpenses int) {
	if m == nil {
		return
	}
	m.drift.Set(float64(driftedCategories))
	m.orphans.Set(float64(orphanedExpenses))
}

// Outcome maps an operation error onto a low-cardinality label value.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return strings.ToLower(appErr.Code)
	}
	return "error"
}
