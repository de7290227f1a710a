package config

import "time"

// Default values for configuration fields.
const (
	// Limiter defaults
	DefaultMaxRequests = 5
	DefaultWindow      = 60 * time.Second

	// Janitor defaults
	DefaultJanitorEnabled  = true
	DefaultJanitorSchedule = "*/5 * * * *"

	// Audit defaults
	DefaultAuditBackend           = "none"
	DefaultAuditRecord            = "denied"
	DefaultAuditRetention         = 24 * time.Hour
	DefaultAuditMemoryMaxEntries  = 10000
	DefaultAuditSQLitePath        = "data/turnstile.db"
	DefaultAuditSQLiteBusyTimeout = 5 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultLoggingRedact    = true
	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "turnstile"
	DefaultMetricsPath      = "/metrics"

	// Tracing defaults
	DefaultTracingSampler      = "ratio"
	DefaultTracingSampleRatio  = 0.1
	DefaultTracingExporter     = "otlp"
	DefaultTracingEndpoint     = "localhost:4317"
	DefaultTracingServiceName  = "turnstile"
	DefaultTracingOTLPInsecure = true
	DefaultTracingOTLPTimeout  = 10 * time.Second
)

// Default returns a configuration with every field set to its default.
// Booleans whose default is true are only set here, so files are decoded
// on top of Default() rather than a zero Config.
func Default() *Config {
	cfg := &Config{
		Janitor: JanitorConfig{Enabled: DefaultJanitorEnabled},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{RedactClientIDs: DefaultLoggingRedact},
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Tracing: TracingConfig{OTLP: OTLPConfig{Insecure: DefaultTracingOTLPInsecure}},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Limiter defaults
	if cfg.Limiter.MaxRequests == 0 {
		cfg.Limiter.MaxRequests = DefaultMaxRequests
	}
	if cfg.Limiter.Window == 0 {
		cfg.Limiter.Window = DefaultWindow
	}

	// Janitor defaults
	if cfg.Janitor.Schedule == "" {
		cfg.Janitor.Schedule = DefaultJanitorSchedule
	}

	// Audit defaults
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.Record == "" {
		cfg.Audit.Record = DefaultAuditRecord
	}
	if cfg.Audit.Retention == 0 {
		cfg.Audit.Retention = DefaultAuditRetention
	}
	if cfg.Audit.Memory.MaxEntries == 0 {
		cfg.Audit.Memory.MaxEntries = DefaultAuditMemoryMaxEntries
	}
	if cfg.Audit.SQLite.Path == "" {
		cfg.Audit.SQLite.Path = DefaultAuditSQLitePath
	}
	if cfg.Audit.SQLite.BusyTimeout == 0 {
		cfg.Audit.SQLite.BusyTimeout = DefaultAuditSQLiteBusyTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}

	tracing := &cfg.Telemetry.Tracing
	if tracing.Sampler == "" {
		tracing.Sampler = DefaultTracingSampler
	}
	if tracing.SampleRatio == 0 {
		tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if tracing.Exporter == "" {
		tracing.Exporter = DefaultTracingExporter
	}
	if tracing.Endpoint == "" {
		tracing.Endpoint = DefaultTracingEndpoint
	}
	if tracing.ServiceName == "" {
		tracing.ServiceName = DefaultTracingServiceName
	}
	if tracing.OTLP.Timeout == 0 {
		tracing.OTLP.Timeout = DefaultTracingOTLPTimeout
	}
}
