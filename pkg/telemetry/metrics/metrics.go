package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config contains configuration for metric collectors.
type Config struct {
	// Namespace is the metric namespace (default "aegis").
	Namespace string

	// Subsystem is the metric subsystem (default "ethics").
	Subsystem string
}

// DefaultConfig returns the default metrics configuration.
func DefaultConfig() *Config {
	return &Config{
		Namespace: "aegis",
		Subsystem: "ethics",
	}
}

// EthicsMetrics tracks metrics for the clearance engine.
//
// Metrics:
//   - aegis_ethics_evaluations_total: evaluations by kind and clearance level
//   - aegis_ethics_evaluation_duration_seconds: evaluation duration by kind
//   - aegis_ethics_violations_total: violations by principle and severity
//   - aegis_ethics_blocked_total: blocked executions by clearance level
//   - aegis_ethics_audit_writes_total: audit writes by backend and status
type EthicsMetrics struct {
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	violationsTotal    *prometheus.CounterVec
	blockedTotal       *prometheus.CounterVec
	auditWritesTotal   *prometheus.CounterVec
}

// NewEthicsMetrics creates and registers the collectors with the registry.
func NewEthicsMetrics(cfg *Config, registry *prometheus.Registry) *EthicsMetrics {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	m := &EthicsMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluations_total",
				Help:      "Total number of ethics evaluations",
			},
			[]string{"kind", "level"},
		),

		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of ethics evaluations in seconds",
				// Keyword evaluation is fast; the tail covers slow audit writes.
				Buckets: prometheus.ExponentialBuckets(0.000001, 4, 12),
			},
			[]string{"kind"},
		),

		violationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "violations_total",
				Help:      "Total number of principle violations detected",
			},
			[]string{"principle", "severity"},
		),

		blockedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "blocked_total",
				Help:      "Total number of executions blocked by the enforcement wrapper",
			},
			[]string{"level"},
		),

		auditWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_writes_total",
				Help:      "Total number of audit log writes",
			},
			[]string{"backend", "status"},
		),
	}

	registry.MustRegister(
		m.evaluationsTotal,
		m.evaluationDuration,
		m.violationsTotal,
		m.blockedTotal,
		m.auditWritesTotal,
	)

	return m
}

// RecordEvaluation records a completed evaluation.
func (m *EthicsMetrics) RecordEvaluation(kind, level string, duration time.Duration) {
	if m == nil {
		return
	}
	m.evaluationsTotal.WithLabelValues(kind, level).Inc()
	m.evaluationDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordViolation records a detected violation.
func (m *EthicsMetrics) RecordViolation(principle, severity string) {
	if m == nil {
		return
	}
	m.violationsTotal.WithLabelValues(principle, severity).Inc()
}

// RecordBlocked records an execution blocked by the enforcement wrapper.
func (m *EthicsMetrics) RecordBlocked(level string) {
	if m == nil {
		return
	}
	m.blockedTotal.WithLabelValues(level).Inc()
}

// RecordAuditWrite records an audit write outcome.
func (m *EthicsMetrics) RecordAuditWrite(backend, status string) {
	if m == nil {
		return
	}
	m.auditWritesTotal.WithLabelValues(backend, status).Inc()
}
