// Package limits provides per-client admission control with observability.
//
// # Overview
//
// The decision itself is made by ratelimit.Tracker, a sliding-window log
// limiter. Manager wraps a tracker and adds:
//
//   - Prometheus metrics (decisions, check latency, tracked clients)
//   - Structured logging of denials with redacted client identifiers
//   - A decision audit log (memory or SQLite) with retention
//   - Sweeps that evict idle clients and purge expired audit records
//
// # Architecture
//
// The package is organized into sub-packages:
//
//   - ratelimit: the sliding-window admission tracker
//   - storage: decision audit log backends (memory, SQLite)
//   - janitor: cron-driven sweep scheduling
//
// # Usage
//
//	audit, err := limits.OpenAudit(cfg.Audit)
//	if err != nil {
//	    return err
//	}
//
//	mcfg := limits.ConfigFrom(cfg)
//	mcfg.Audit = audit
//	mcfg.Metrics = limits.NewMetrics("turnstile", registry)
//	manager, err := limits.NewManager(mcfg)
//	if err != nil {
//	    return err
//	}
//	defer manager.Close()
//
//	if !manager.Allow(ctx, clientID) {
//	    return errTooManyRequests
//	}
//
// # Performance
//
// Metrics, logging and audit writes run after the tracker's lock is
// released, so a slow audit backend delays only the calling goroutine.
package limits
