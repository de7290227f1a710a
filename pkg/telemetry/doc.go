// Package telemetry groups the observability packages used by turnstile.
//
// # Components
//
//   - logging: Structured logging with client identifier redaction
//   - metrics: Prometheus registry and scrape handler
//   - tracing: OpenTelemetry spans exported over OTLP gRPC
//   - health: Liveness and readiness probes
//
// Admission metrics themselves live in package limits, registered on the
// registry owned by metrics.Collector:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	m := limits.NewMetrics(collector.Namespace(), collector.Registry())
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	manager, err := limits.NewManager(limits.Config{
//	    MaxRequests: cfg.Limiter.MaxRequests,
//	    Window:      cfg.Limiter.Window,
//	    Metrics:     m,
//	    Tracer:      tracer.Tracer(),
//	})
package telemetry
