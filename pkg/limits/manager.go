package limits

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/turnstile/pkg/limits/ratelimit"
	"mercator-hq/turnstile/pkg/limits/storage"
	"mercator-hq/turnstile/pkg/telemetry/logging"
	"mercator-hq/turnstile/pkg/telemetry/tracing"
)

// Manager wraps an admission tracker with metrics, structured logging and
// a decision audit log.
//
// The tracker decides; everything else happens after the tracker has
// returned and outside its lock. A failed audit write is logged and counted
// but never changes or fails a decision.
//
// # Example
//
//	manager, err := limits.NewManager(limits.Config{
//	    MaxRequests: 100,
//	    Window:      time.Minute,
//	    Audit:       storage.NewMemoryBackend(),
//	})
//	if err != nil {
//	    return err
//	}
//	defer manager.Close()
//
//	if !manager.Allow(ctx, clientIP) {
//	    // Too many requests
//	}
type Manager struct {
	tracker *ratelimit.Tracker
	now     ratelimit.Clock

	audit     storage.Backend
	record    RecordMode
	retention time.Duration

	metrics *Metrics
	logger  *logging.Logger
	tracer  trace.Tracer
	runID   string
}

// NewManager creates a new admission manager. It fails with an error
// wrapping ratelimit.ErrInvalidConfig when the limit or window is not
// positive, or when the record mode is unknown.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Record == "" {
		cfg.Record = RecordDenied
	}
	if cfg.Record != RecordDenied && cfg.Record != RecordAll {
		return nil, fmt.Errorf("%w: unknown record mode %q", ratelimit.ErrInvalidConfig, cfg.Record)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.FromSlog(nil)
	}
	if cfg.Tracer == nil {
		cfg.Tracer = noop.NewTracerProvider().Tracer("")
	}

	tracker, err := ratelimit.NewTracker(cfg.MaxRequests, cfg.Window, ratelimit.WithClock(cfg.Clock))
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger.With("component", "limits")
	if cfg.RunID != "" {
		logger = logger.With("run_id", cfg.RunID)
	}

	return &Manager{
		tracker:   tracker,
		now:       cfg.Clock,
		audit:     cfg.Audit,
		record:    cfg.Record,
		retention: cfg.Retention,
		metrics:   cfg.Metrics,
		logger:    logger,
		tracer:    cfg.Tracer,
		runID:     cfg.RunID,
	}, nil
}

// Allow reports whether clientID may make another request now. The decision
// is exactly the tracker's; metrics, logging and auditing follow it.
func (m *Manager) Allow(ctx context.Context, clientID string) bool {
	ctx, span := m.tracer.Start(ctx, "limits.Allow")
	defer span.End()

	start := time.Now()
	allowed := m.tracker.Allow(clientID)
	elapsed := time.Since(start)

	if m.metrics != nil {
		m.metrics.RecordDecision(allowed, elapsed)
	}

	if span.IsRecording() {
		span.SetAttributes(tracing.AttrResult.String(resultLabel(allowed)))
		span.SetAttributes(tracing.LimitAttributes(m.tracker.MaxRequests(), m.tracker.Window())...)
	}

	if !allowed {
		m.logger.DebugContext(logging.WithClientID(ctx, clientID), "request denied",
			"max_requests", m.tracker.MaxRequests(),
			"window", m.tracker.Window().String(),
		)
	}

	if m.audit != nil && (!allowed || m.record == RecordAll) {
		err := m.recordDecision(ctx, clientID, allowed)
		span.SetAttributes(tracing.AttrAudited.Bool(err == nil))
	}

	return allowed
}

// recordDecision writes one decision to the audit log. The error is
// returned for tracing only; it has already been logged and counted.
func (m *Manager) recordDecision(ctx context.Context, clientID string, allowed bool) error {
	d := storage.NewDecision(clientID, allowed, m.now())
	d.RunID = m.runID
	if runID := logging.GetRunID(ctx); runID != "" {
		d.RunID = runID
	}

	err := m.audit.Record(ctx, d)
	if err != nil {
		if m.metrics != nil {
			m.metrics.RecordAuditFailure()
		}
		m.logger.WarnContext(logging.WithClientID(ctx, clientID), "failed to record decision",
			"allowed", allowed,
			"error", err,
		)
	}
	return err
}

// Sweep evicts idle clients from the tracker and removes audited decisions
// older than the retention period. Eviction never changes a later decision.
//
// The returned error reports audit cleanup failures only; eviction itself
// cannot fail.
func (m *Manager) Sweep(ctx context.Context) (SweepResult, error) {
	ctx, span := m.tracer.Start(ctx, "limits.Sweep")
	defer span.End()

	result := SweepResult{
		EvictedClients: m.tracker.EvictIdle(),
		TrackedClients: m.tracker.Clients(),
	}

	if m.metrics != nil {
		m.metrics.RecordEviction(result.EvictedClients)
		m.metrics.UpdateTrackedClients(result.TrackedClients)
	}

	var sweepErr error
	if m.audit != nil && m.retention > 0 {
		purged, err := m.audit.Cleanup(ctx, m.now().Add(-m.retention))
		if err != nil {
			if m.metrics != nil {
				m.metrics.RecordAuditFailure()
			}
			sweepErr = fmt.Errorf("audit cleanup failed: %w", err)
		} else {
			result.PurgedDecisions = purged
			if m.metrics != nil {
				m.metrics.RecordPurge(purged)
			}
		}
	}

	m.logger.InfoContext(ctx, "sweep completed",
		"evicted_clients", result.EvictedClients,
		"purged_decisions", result.PurgedDecisions,
		"tracked_clients", result.TrackedClients,
	)

	span.SetAttributes(tracing.SweepAttributes(result.EvictedClients, result.PurgedDecisions, result.TrackedClients)...)
	if m.runID != "" {
		span.SetAttributes(tracing.AttrRunID.String(m.runID))
	}
	tracing.SetStatus(span, sweepErr)

	return result, sweepErr
}

// Decisions queries the audit log.
func (m *Manager) Decisions(ctx context.Context, filter *storage.Filter) ([]*storage.Decision, error) {
	if m.audit == nil {
		return nil, ErrAuditDisabled
	}
	return m.audit.Query(ctx, filter)
}

// Stats returns the tracker's current occupancy.
func (m *Manager) Stats() ratelimit.Stats {
	return m.tracker.Stats()
}

// Tracker returns the underlying tracker.
func (m *Manager) Tracker() *ratelimit.Tracker {
	return m.tracker
}

// Close releases the audit backend, if any.
func (m *Manager) Close() error {
	if m.audit == nil {
		return nil
	}
	if err := m.audit.Close(); err != nil {
		return fmt.Errorf("failed to close audit log: %w", err)
	}
	return nil
}
