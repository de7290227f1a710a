// Package config provides configuration management for turnstile.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("turnstile.yaml")
//
//  2. From a YAML file (or defaults only, with an empty path) with
//     environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("turnstile.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention TURNSTILE_SECTION_FIELD.
// For example:
//
//   - TURNSTILE_LIMITER_MAX_REQUESTS overrides limiter.max_requests
//   - TURNSTILE_LIMITER_WINDOW overrides limiter.window
//   - TURNSTILE_AUDIT_BACKEND overrides audit.backend
//   - TURNSTILE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// Validation errors include field paths:
//
//	configuration validation failed with 2 errors:
//	  - limiter.max_requests: must be positive, got -1
//	  - audit.backend: invalid backend "redis": must be 'none', 'memory', or 'sqlite'
//
// # Example Configuration
//
//	limiter:
//	  max_requests: 100
//	  window: 1m
//
//	janitor:
//	  schedule: "*/5 * * * *"
//
//	audit:
//	  backend: sqlite
//	  record: denied
//	  retention: 24h
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
package config
