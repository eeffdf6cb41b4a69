// Package metrics defines and registers the Prometheus instruments for
// the Warden server. It is the single source of truth for metric names,
// labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "warden"

// Metrics holds every instrument the server records. A nil *Metrics is
// valid everywhere and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// CommandsTotal counts executed commands by kind and outcome.
	CommandsTotal *prometheus.CounterVec

	// CommandDuration measures dispatch latency per kind.
	CommandDuration *prometheus.HistogramVec

	// RejectedTotal counts requests rejected before execution, by reason
	// ("malformed" or "tier_mismatch").
	RejectedTotal *prometheus.CounterVec

	// FailedLogins counts unsuccessful login attempts.
	FailedLogins prometheus.Counter

	// SessionsActive tracks the current number of live sessions.
	SessionsActive prometheus.Gauge

	// SessionsSwept counts sessions removed by the background sweeper.
	SessionsSwept prometheus.Counter

	// AuditEvents counts audit events emitted, by type.
	AuditEvents *prometheus.CounterVec

	// AuditDropped counts audit events dropped by a full buffer.
	AuditDropped prometheus.Counter
}

// New creates and registers all instruments on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of commands executed, by kind and outcome.",
		}, []string{"kind", "status"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Duration of command dispatch from parse to result.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		RejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_total",
			Help:      "Requests rejected before execution, by reason.",
		}, []string{"reason"}),
		FailedLogins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failed_logins_total",
			Help:      "Total number of unsuccessful login attempts.",
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Current number of live sessions.",
		}),
		SessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_swept_total",
			Help:      "Sessions removed by the background sweeper.",
		}),
		AuditEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_events_total",
			Help:      "Audit events emitted, by type.",
		}, []string{"type"}),
		AuditDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_events_dropped_total",
			Help:      "Audit events dropped because the buffer was full.",
		}),
	}

	reg.MustRegister(
		m.CommandsTotal,
		m.CommandDuration,
		m.RejectedTotal,
		m.FailedLogins,
		m.SessionsActive,
		m.SessionsSwept,
		m.AuditEvents,
		m.AuditDropped,
	)
	return m
}

// Registry returns the registry all instruments are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}
