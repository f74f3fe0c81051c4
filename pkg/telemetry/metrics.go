package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects Prometheus metrics for engine activity. A nil or
// disabled Metrics is a no-op, so callers never guard their recording
// sites.
type Metrics struct {
	registry *prometheus.Registry

	callsTotal         *prometheus.CounterVec
	callDuration       *prometheus.HistogramVec
	pendingCheckpoints prometheus.Gauge
	rollbacksTotal     *prometheus.CounterVec
}

// NewMetrics creates a metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{}, nil
	}

	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,

		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "engine_calls_total",
				Help:      "Total number of engine calls",
			},
			[]string{"operation", "status"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "engine_call_duration_seconds",
				Help:      "Duration of engine calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		pendingCheckpoints: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "pending_checkpoints",
				Help:      "Number of open, uncommitted transactions",
			},
		),
		rollbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "rollbacks_total",
				Help:      "Total number of transaction rollbacks by trigger",
			},
			[]string{"trigger"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.callsTotal, m.callDuration, m.pendingCheckpoints, m.rollbacksTotal,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Registry exposes the underlying registry so the embedding program can
// serve or push it. Nil when metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveCall records one engine call outcome.
func (m *Metrics) ObserveCall(operation, status string, d time.Duration) {
	if m == nil || m.registry == nil {
		return
	}
	m.callsTotal.WithLabelValues(operation, status).Inc()
	m.callDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// CheckpointOpened records a transaction left pending.
func (m *Metrics) CheckpointOpened() {
	if m == nil || m.registry == nil {
		return
	}
	m.pendingCheckpoints.Inc()
}

// CheckpointResolved records a pending transaction leaving the table.
func (m *Metrics) CheckpointResolved() {
	if m == nil || m.registry == nil {
		return
	}
	m.pendingCheckpoints.Dec()
}

// RollbackTrigger labels what initiated a rollback.
type RollbackTrigger string

const (
	// RollbackTriggerCaller: an explicit rollback call.
	RollbackTriggerCaller RollbackTrigger = "caller"
	// RollbackTriggerWatchdog: the rollback-timeout watchdog fired.
	RollbackTriggerWatchdog RollbackTrigger = "watchdog"
	// RollbackTriggerVerify: a failed post-apply verification.
	RollbackTriggerVerify RollbackTrigger = "verification"
)

// ObserveRollback records one rollback.
func (m *Metrics) ObserveRollback(trigger RollbackTrigger) {
	if m == nil || m.registry == nil {
		return
	}
	m.rollbacksTotal.WithLabelValues(string(trigger)).Inc()
}
