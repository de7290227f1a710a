// Package tracing provides OpenTelemetry tracing for admission decisions.
//
// # Overview
//
// Tracing is off by default. When enabled, spans are exported over OTLP
// gRPC to the configured collector:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: localhost:4317
//	    sampler: always
//
// # Spans
//
//   - turnstile <command>: one root span per CLI invocation
//   - limits.Allow: one span per decision, tagged with the result
//   - limits.Sweep: idle-client eviction and audit retention
//
// Client identifiers are never recorded on spans; the run ID and limit are.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "turnstile bench")
//	defer span.End()
package tracing
