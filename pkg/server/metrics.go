package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/runtime"
)

// MetricsConfig configures the Prometheus metrics of a Server.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "morph").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are added to every metric.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for tick duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry receives the metrics and backs /metrics.
	// Default: a fresh registry per server.
	Registry *prometheus.Registry
}

// MetricsOption configures MetricsConfig.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the tick duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "morph",
		Buckets:   prometheus.DefBuckets,
	}
}

// metrics holds the Prometheus collectors of one Server.
type metrics struct {
	registry *prometheus.Registry

	activeSessions prometheus.Gauge
	sessionsTotal  *prometheus.CounterVec
	ticksTotal     prometheus.Counter
	tickDuration   prometheus.Histogram
	mutationsSent  *prometheus.CounterVec
	bytesSent      prometheus.Counter
	duplicateKeys  prometheus.Counter
	eventsTotal    *prometheus.CounterVec
	eventErrors    *prometheus.CounterVec
	wsErrors       *prometheus.CounterVec
}

func newMetrics(config MetricsConfig) *metrics {
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}

	return &metrics{
		registry: config.Registry,

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of connected sessions",
			ConstLabels: config.ConstLabels,
		}),
		sessionsTotal: counterVec("sessions_total",
			"Sessions by handshake outcome", "outcome"),
		ticksTotal: counter("ticks_total",
			"Total number of runtime ticks"),
		tickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tick_duration_seconds",
			Help:        "Update, view and morph duration per tick",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
		mutationsSent: counterVec("mutations_sent_total",
			"Host mutations sent to clients by op", "op"),
		bytesSent: counter("bytes_sent_total",
			"Frame bytes written to clients"),
		duplicateKeys: counter("duplicate_keys_total",
			"Duplicate keys seen in keyed sibling lists"),
		eventsTotal: counterVec("events_total",
			"Client events by type", "type"),
		eventErrors: counterVec("event_errors_total",
			"Client events rejected by reason", "reason"),
		wsErrors: counterVec("websocket_errors_total",
			"WebSocket errors by type", "type"),
	}
}

func (m *metrics) recordTick(info runtime.TickInfo) {
	m.ticksTotal.Inc()
	m.tickDuration.Observe(info.Duration.Seconds())
	if info.Stats.DuplicateKeys > 0 {
		m.duplicateKeys.Add(float64(info.Stats.DuplicateKeys))
	}
}

func (m *metrics) recordMutations(muts []dom.Mutation, bytes int) {
	for op, n := range dom.CountOps(muts) {
		m.mutationsSent.WithLabelValues(op.String()).Add(float64(n))
	}
	m.bytesSent.Add(float64(bytes))
}
