package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "limiter.window").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateLimiter(&cfg.Limiter)...)
	errs = append(errs, validateJanitor(&cfg.Janitor)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateLimiter(cfg *LimiterConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxRequests <= 0 {
		errs = append(errs, FieldError{
			Field:   "limiter.max_requests",
			Message: fmt.Sprintf("must be positive, got %d", cfg.MaxRequests),
		})
	}
	if cfg.Window <= 0 {
		errs = append(errs, FieldError{
			Field:   "limiter.window",
			Message: fmt.Sprintf("must be positive, got %s", cfg.Window),
		})
	}

	return errs
}

func validateJanitor(cfg *JanitorConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}

	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return []FieldError{{
			Field:   "janitor.schedule",
			Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Schedule, err),
		}}
	}

	return nil
}

func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "none", "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'none', 'memory', or 'sqlite'", cfg.Backend),
		})
	}

	switch cfg.Record {
	case "denied", "all":
	default:
		errs = append(errs, FieldError{
			Field:   "audit.record",
			Message: fmt.Sprintf("invalid record mode %q: must be 'denied' or 'all'", cfg.Record),
		})
	}

	if cfg.Retention < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention",
			Message: "must not be negative",
		})
	}

	if cfg.Backend == "memory" && cfg.Memory.MaxEntries < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.memory.max_entries",
			Message: "must not be negative",
		})
	}

	if cfg.Backend == "sqlite" {
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.path",
				Message: "path is required for the sqlite backend",
			})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.busy_timeout",
				Message: "must not be negative",
			})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	for i, p := range cfg.Logging.RedactPatterns {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: fmt.Sprintf("invalid regular expression: %v", err),
			})
		}
	}

	if cfg.Metrics.Enabled {
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: fmt.Sprintf("metrics path %q must start with '/'", cfg.Metrics.Path),
			})
		}
		if !metricNamespace.MatchString(cfg.Metrics.Namespace) {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.namespace",
				Message: fmt.Sprintf("invalid metric namespace %q", cfg.Metrics.Namespace),
			})
		}
	}

	errs = append(errs, validateTracing(&cfg.Tracing)...)

	return errs
}

func validateTracing(cfg *TracingConfig) []FieldError {
	var errs []FieldError

	switch cfg.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Sampler),
		})
	}

	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: fmt.Sprintf("sample ratio must be between 0.0 and 1.0, got %v", cfg.SampleRatio),
		})
	}

	if !cfg.Enabled {
		return errs
	}

	if cfg.Exporter != "otlp" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.exporter",
			Message: fmt.Sprintf("unsupported exporter %q: must be 'otlp'", cfg.Exporter),
		})
	}
	if cfg.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}
	if cfg.OTLP.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.otlp.timeout",
			Message: "timeout cannot be negative",
		})
	}

	return errs
}

// metricNamespace matches valid Prometheus metric name prefixes.
var metricNamespace = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
