package config

import "time"

// Config is the root configuration for turnstile.
// It is loaded from YAML and may be overridden by TURNSTILE_* environment
// variables.
type Config struct {
	// Limiter configures the admission tracker.
	Limiter LimiterConfig `yaml:"limiter"`

	// Janitor configures the periodic sweep of idle clients and expired
	// audit records.
	Janitor JanitorConfig `yaml:"janitor"`

	// Audit configures the decision audit log.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LimiterConfig contains the sliding-window parameters.
// Both values are fixed for the lifetime of a tracker.
type LimiterConfig struct {
	// MaxRequests is the number of requests a client may make per window.
	// Default: 5
	MaxRequests int `yaml:"max_requests"`

	// Window is the length of the trailing window.
	// Default: 60s
	Window time.Duration `yaml:"window"`
}

// JanitorConfig contains sweep scheduling configuration.
type JanitorConfig struct {
	// Enabled turns the scheduled sweep on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Schedule is a standard 5-field cron expression.
	// Default: "*/5 * * * *"
	Schedule string `yaml:"schedule"`
}

// AuditConfig contains decision audit log configuration.
type AuditConfig struct {
	// Backend selects the storage backend.
	// Options: "none", "memory", "sqlite"
	// Default: "none"
	Backend string `yaml:"backend"`

	// Record selects which decisions are written.
	// Options: "denied", "all"
	// Default: "denied"
	Record string `yaml:"record"`

	// Retention is how long decisions are kept before a sweep removes them.
	// Default: 24h
	Retention time.Duration `yaml:"retention"`

	// Memory configures the in-memory backend.
	Memory MemoryAuditConfig `yaml:"memory"`

	// SQLite configures the SQLite backend.
	SQLite SQLiteAuditConfig `yaml:"sqlite"`
}

// MemoryAuditConfig contains in-memory backend configuration.
type MemoryAuditConfig struct {
	// MaxEntries caps the number of stored decisions; the oldest are
	// dropped first.
	// Default: 10000
	MaxEntries int `yaml:"max_entries"`
}

// SQLiteAuditConfig contains SQLite backend configuration.
type SQLiteAuditConfig struct {
	// Path is the database file path.
	// Default: "data/turnstile.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing configures OpenTelemetry tracing.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactClientIDs masks client identifiers (IP addresses, API keys,
	// emails) in log output.
	// Default: true
	RedactClientIDs bool `yaml:"redact_client_ids"`

	// RedactPatterns contains custom redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled turns on Prometheus collectors.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace prefixes every metric name.
	// Default: "turnstile"
	Namespace string `yaml:"namespace"`

	// Path is the HTTP path metrics are served on when exposed.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter determines the trace exporter to use.
	// Options: "otlp"
	// Default: "otlp"
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "turnstile"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the collector connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
