// Package metrics exposes Prometheus instrumentation for the
// reconciliation engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bazaar-service/bazaar_service/internal/domain/entities"
)

// Reconciliation records reconciliation counters and pass durations.
type Reconciliation struct {
	runs         *prometheus.CounterVec
	outcomes     *prometheus.CounterVec
	unitFailures *prometheus.CounterVec
	passDuration *prometheus.HistogramVec
}

// NewReconciliation registers the reconciliation metrics with the default
// registry.
func NewReconciliation() *Reconciliation {
	return &Reconciliation{
		runs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reconciliation_runs_total",
			Help: "Reconciliation passes started, per network.",
		}, []string{"network"}),
		outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reconciliation_outcomes_total",
			Help: "Transaction outcomes applied, per aggregate kind and result.",
		}, []string{"kind", "result"}),
		unitFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reconciliation_unit_failures_total",
			Help: "Per-aggregate units that failed to apply, per aggregate kind.",
		}, []string{"kind"}),
		passDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reconciliation_pass_duration_seconds",
			Help:    "Duration of one reconciliation pass, per network.",
			Buckets: prometheus.DefBuckets,
		}, []string{"network"}),
	}
}

func (m *Reconciliation) RecordRun(network string) {
	m.runs.WithLabelValues(network).Inc()
}

func (m *Reconciliation) RecordOutcome(kind entities.AggregateKind, confirmed bool) {
	result := "failed"
	if confirmed {
		result = "confirmed"
	}
	m.outcomes.WithLabelValues(string(kind), result).Inc()
}

func (m *Reconciliation) RecordUnitFailure(kind entities.AggregateKind) {
	m.unitFailures.WithLabelValues(string(kind)).Inc()
}

func (m *Reconciliation) RecordPassDuration(network string, d time.Duration) {
	m.passDuration.WithLabelValues(network).Observe(d.Seconds())
}

// Noop discards every metric. Intended for tests.
type Noop struct{}

func (Noop) RecordRun(string) {}

func (Noop) RecordOutcome(entities.AggregateKind, bool) {}

func (Noop) RecordUnitFailure(entities.AggregateKind) {}

func (Noop) RecordPassDuration(string, time.Duration) {}
