// Package health provides liveness and readiness probes for the turnstile
// metrics server.
//
// # Endpoints
//
//   - /health: Liveness probe, ok while the process is running
//   - /ready: Readiness probe, runs every registered component check
//   - /version: Build information
//
// # Usage
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("audit", func(ctx context.Context) error {
//	    _, err := backend.Query(ctx, &storage.Filter{Limit: 1})
//	    return err
//	})
//
//	mux := collector.Mux()
//	checker.Register(mux, health.VersionInfo{Version: "0.1.0"})
//
// # Readiness
//
// Checks run concurrently, each bounded by the checker's timeout. A single
// failing or timed-out check marks the system degraded and the readiness
// endpoint answers 503. With no checks registered the system is ready.
package health
