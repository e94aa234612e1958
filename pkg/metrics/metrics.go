// Package metrics provides metrics collection capabilities for the application.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all the metrics collectors for the submission pipeline.
type Metrics struct {
	// Registry is the Prometheus registry for all metrics.
	Registry *prometheus.Registry

	// BroadcastCount counts broadcasts by result (accepted, already_known, rejected).
	BroadcastCount *prometheus.CounterVec
	// PollCount counts confirmation status polls.
	PollCount prometheus.Counter
	// ConfirmationDuration observes time from broadcast to terminal status.
	ConfirmationDuration *prometheus.HistogramVec
	// TerminalStatus counts terminal outcomes by status (executed, failed, timed_out).
	TerminalStatus *prometheus.CounterVec
	// SubmissionErrors counts pipeline failures by error code.
	SubmissionErrors *prometheus.CounterVec
}

// Config holds the configuration for metrics.
type Config struct {
	// Namespace is the Prometheus namespace for all metrics.
	Namespace string
	// Subsystem is the Prometheus subsystem for all metrics.
	Subsystem string
}

// DefaultConfig returns a default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Namespace: "ledgerflow",
		Subsystem: "pipeline",
	}
}

// New creates a new metrics collector with the given configuration.
func New(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		Registry: registry,

		BroadcastCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "broadcast_total",
				Help:      "Total number of transaction broadcasts by result.",
			},
			[]string{"result"},
		),
		PollCount: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "confirmation_polls_total",
				Help:      "Total number of confirmation status polls.",
			},
		),
		ConfirmationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "confirmation_duration_seconds",
				Help:      "Time from broadcast to terminal status observation.",
				Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
			},
			[]string{"status"},
		),
		TerminalStatus: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "terminal_status_total",
				Help:      "Total number of submissions reaching a terminal state.",
			},
			[]string{"status"},
		),
		SubmissionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "submission_errors_total",
				Help:      "Total number of pipeline failures by error code.",
			},
			[]string{"code"},
		),
	}
}

// Handler returns an HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveConfirmation records a terminal observation with its latency.
func (m *Metrics) ObserveConfirmation(status string, since time.Time) {
	m.ConfirmationDuration.WithLabelValues(status).Observe(time.Since(since).Seconds())
	m.TerminalStatus.WithLabelValues(status).Inc()
}
