package logging

import (
	"context"
)

// Context keys for common log fields.
type contextKey string

const (
	// RunIDKey is the context key for run identifiers (one per CLI invocation).
	RunIDKey contextKey = "run_id"

	// ClientIDKey is the context key for the client identifier being admitted.
	ClientIDKey contextKey = "client_id"

	// ComponentKey is the context key for the emitting component.
	ComponentKey contextKey = "component"
)

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the run ID from the context.
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// WithClientID adds a client identifier to the context.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, ClientIDKey, clientID)
}

// GetClientID retrieves the client identifier from the context.
func GetClientID(ctx context.Context) string {
	if clientID, ok := ctx.Value(ClientIDKey).(string); ok {
		return clientID
	}
	return ""
}

// WithComponent adds a component name to the context.
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, ComponentKey, component)
}

// GetComponent retrieves the component name from the context.
func GetComponent(ctx context.Context) string {
	if component, ok := ctx.Value(ComponentKey).(string); ok {
		return component
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
// Returns a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if runID := GetRunID(ctx); runID != "" {
		fields = append(fields, "run_id", runID)
	}

	// Redacted by the logger when client ID redaction is enabled
	if clientID := GetClientID(ctx); clientID != "" {
		fields = append(fields, "client_id", clientID)
	}

	if component := GetComponent(ctx); component != "" {
		fields = append(fields, "component", component)
	}

	return fields
}
