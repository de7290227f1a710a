// Package logging provides structured logging with client identifier redaction.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON, text, and console formats
//   - Redaction of client identifiers (IP addresses, API keys, emails)
//   - Context-aware logging with run IDs and client IDs
//   - Configurable log levels (debug, info, warn, error)
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:           "info",
//	    Format:          "json",
//	    RedactClientIDs: true,
//	})
//
//	logger.Info("request denied",
//	    "client_id", "203.0.113.9", // Logged as 203.***
//	    "max_requests", 5,
//	)
//
// # Redaction
//
// Client identifiers are usually IP addresses or API keys, so they are
// masked before they reach the log output when RedactClientIDs is enabled:
//
//   - Sensitive keys (client_id, api_key, token, ...): first 4 chars kept
//   - IPv4: 192.168.1.100 → 192.*.*.*
//   - API keys: sk-abc123xyz → sk-***
//   - Emails: user@example.com → u***@example.com
package logging
