package metrics

import (
	"mercator-hq/turnstile/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collector owns the Prometheus registry shared by every turnstile
// component. Components register their own collectors on Registry(); the
// collector itself adds the Go runtime and process collectors.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry
}

// NewCollector creates a new metrics collector with the specified
// configuration. If registry is nil, a fresh registry is created.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	m := limits.NewMetrics(collector.Namespace(), collector.Registry())
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	if cfg.Enabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: cfg.Namespace}),
		)
	}

	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Enabled reports whether metrics collection is turned on.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}

// Namespace returns the metric name prefix.
func (c *Collector) Namespace() string {
	return c.config.Namespace
}

// Path returns the HTTP path the handler should be mounted on.
func (c *Collector) Path() string {
	return c.config.Path
}
