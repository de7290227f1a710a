package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "TURNSTILE_"

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded on top of Default(), so omitted fields keep their
// defaults. The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration on top of Default() and applies
// defaults to any field left at its zero value. It does not validate.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention TURNSTILE_SECTION_FIELD (e.g., TURNSTILE_LIMITER_MAX_REQUESTS).
// Environment variables always take precedence over file-based configuration.
//
// An empty path skips the file and starts from Default().
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		cfg, err = Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Unparseable numeric, duration or boolean values are reported as a
// ValidationError naming the variable.
func applyEnvOverrides(cfg *Config) error {
	var errs []FieldError

	envInt := func(name string, dst *int) {
		if val := os.Getenv(EnvPrefix + name); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				errs = append(errs, envError(name, val, "integer"))
				return
			}
			*dst = i
		}
	}
	envDuration := func(name string, dst *time.Duration) {
		if val := os.Getenv(EnvPrefix + name); val != "" {
			d, err := time.ParseDuration(val)
			if err != nil {
				errs = append(errs, envError(name, val, "duration"))
				return
			}
			*dst = d
		}
	}
	envBool := func(name string, dst *bool) {
		if val := os.Getenv(EnvPrefix + name); val != "" {
			b, err := strconv.ParseBool(val)
			if err != nil {
				errs = append(errs, envError(name, val, "boolean"))
				return
			}
			*dst = b
		}
	}
	envString := func(name string, dst *string) {
		if val := os.Getenv(EnvPrefix + name); val != "" {
			*dst = val
		}
	}

	// Limiter overrides
	envInt("LIMITER_MAX_REQUESTS", &cfg.Limiter.MaxRequests)
	envDuration("LIMITER_WINDOW", &cfg.Limiter.Window)

	// Janitor overrides
	envBool("JANITOR_ENABLED", &cfg.Janitor.Enabled)
	envString("JANITOR_SCHEDULE", &cfg.Janitor.Schedule)

	// Audit overrides
	envString("AUDIT_BACKEND", &cfg.Audit.Backend)
	envString("AUDIT_RECORD", &cfg.Audit.Record)
	envDuration("AUDIT_RETENTION", &cfg.Audit.Retention)
	envInt("AUDIT_MEMORY_MAX_ENTRIES", &cfg.Audit.Memory.MaxEntries)
	envString("AUDIT_SQLITE_PATH", &cfg.Audit.SQLite.Path)
	envDuration("AUDIT_SQLITE_BUSY_TIMEOUT", &cfg.Audit.SQLite.BusyTimeout)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	envBool("TELEMETRY_LOGGING_REDACT_CLIENT_IDS", &cfg.Telemetry.Logging.RedactClientIDs)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_NAMESPACE", &cfg.Telemetry.Metrics.Namespace)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func envError(name, val, kind string) FieldError {
	return FieldError{
		Field:   EnvPrefix + name,
		Message: fmt.Sprintf("invalid %s %q", kind, val),
	}
}

// Marshal renders the configuration as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	return buf.Bytes(), nil
}
