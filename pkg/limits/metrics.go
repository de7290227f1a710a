package limits

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for admission decisions.
// Client identifiers are never used as label values.
type Metrics struct {
	decisions       *prometheus.CounterVec
	checkDuration   prometheus.Histogram
	trackedClients  prometheus.Gauge
	evictedClients  prometheus.Counter
	purgedDecisions prometheus.Counter
	auditFailures   prometheus.Counter
}

// NewMetrics creates the admission collectors and registers them on reg.
// A nil reg registers on prometheus.DefaultRegisterer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admission_decisions_total",
				Help:      "Total number of admission decisions by result",
			},
			[]string{"result"},
		),

		checkDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "admission_check_duration_seconds",
				Help:      "Duration of admission checks in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
		),

		trackedClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tracked_clients",
				Help:      "Number of client histories held by the tracker",
			},
		),

		evictedClients: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evicted_clients_total",
				Help:      "Total number of idle clients evicted by sweeps",
			},
		),

		purgedDecisions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_purged_decisions_total",
				Help:      "Total number of audit decisions removed by retention",
			},
		),

		auditFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_failures_total",
				Help:      "Total number of audit operations that failed",
			},
		),
	}
}

// RecordDecision records one admission decision and its latency.
func (m *Metrics) RecordDecision(allowed bool, duration time.Duration) {
	m.decisions.WithLabelValues(resultLabel(allowed)).Inc()
	m.checkDuration.Observe(duration.Seconds())
}

// UpdateTrackedClients sets the current number of tracked clients.
func (m *Metrics) UpdateTrackedClients(count int) {
	m.trackedClients.Set(float64(count))
}

// RecordEviction records clients removed by a sweep.
func (m *Metrics) RecordEviction(count int) {
	m.evictedClients.Add(float64(count))
}

// RecordPurge records audit decisions removed by retention.
func (m *Metrics) RecordPurge(count int) {
	m.purgedDecisions.Add(float64(count))
}

// RecordAuditFailure records a failed audit write or cleanup.
func (m *Metrics) RecordAuditFailure() {
	m.auditFailures.Inc()
}

func resultLabel(allowed bool) string {
	if allowed {
		return ResultAllowed
	}
	return ResultDenied
}
