package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusConfig configures a PrometheusObserver.
type PrometheusConfig struct {
	// Namespace is the metrics namespace (default: "statekit").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are added to every metric.
	ConstLabels prometheus.Labels

	// Registry receives the collectors (default: prometheus.DefaultRegisterer).
	Registry prometheus.Registerer
}

// PrometheusOption configures a PrometheusObserver.
type PrometheusOption func(*PrometheusConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) PrometheusOption {
	return func(c *PrometheusConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) PrometheusOption {
	return func(c *PrometheusConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) PrometheusOption {
	return func(c *PrometheusConfig) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registerer.
func WithRegistry(registry prometheus.Registerer) PrometheusOption {
	return func(c *PrometheusConfig) {
		c.Registry = registry
	}
}

func defaultPrometheusConfig() PrometheusConfig {
	return PrometheusConfig{
		Namespace: "statekit",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// PrometheusObserver counts events by type, source and level.
//
// Metrics collected:
//   - statekit_events_total{type,source,level}
//   - statekit_errors_total{type,source}
type PrometheusObserver struct {
	events *prometheus.CounterVec
	errors *prometheus.CounterVec
}

// NewPrometheusObserver registers its collectors and returns the observer.
// Registering twice on the same registry panics, as promauto does.
func NewPrometheusObserver(opts ...PrometheusOption) *PrometheusObserver {
	cfg := defaultPrometheusConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := promauto.With(cfg.Registry)

	return &PrometheusObserver{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "events_total",
			Help:        "Total number of statekit events observed",
			ConstLabels: cfg.ConstLabels,
		}, []string{"type", "source", "level"}),

		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "errors_total",
			Help:        "Total number of error-level statekit events",
			ConstLabels: cfg.ConstLabels,
		}, []string{"type", "source"}),
	}
}

func (o *PrometheusObserver) OnEvent(ctx context.Context, event Event) {
	o.events.WithLabelValues(string(event.Type), event.Source, event.Level.String()).Inc()
	if event.Level >= LevelError {
		o.errors.WithLabelValues(string(event.Type), event.Source).Inc()
	}
}

// Events exposes the event counter vector, mainly for tests and dumps.
func (o *PrometheusObserver) Events() *prometheus.CounterVec {
	return o.events
}
