package limits

import (
	"errors"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/turnstile/pkg/limits/ratelimit"
	"mercator-hq/turnstile/pkg/limits/storage"
	"mercator-hq/turnstile/pkg/telemetry/logging"
)

// Decision result labels.
const (
	ResultAllowed = "allowed"
	ResultDenied  = "denied"
)

// RecordMode selects which decisions are written to the audit log.
type RecordMode string

const (
	// RecordDenied writes only denied decisions.
	RecordDenied RecordMode = "denied"

	// RecordAll writes every decision.
	RecordAll RecordMode = "all"
)

// ErrAuditDisabled is returned by Manager.Decisions when no audit backend
// is configured.
var ErrAuditDisabled = errors.New("audit log is disabled")

// Config contains configuration for the admission manager.
type Config struct {
	// MaxRequests is the per-client request limit within Window.
	MaxRequests int

	// Window is the trailing window length.
	Window time.Duration

	// Clock overrides the time source for the tracker and audit
	// timestamps. Defaults to time.Now.
	Clock ratelimit.Clock

	// Audit is the decision audit log. Nil disables auditing.
	// The manager closes it on Close.
	Audit storage.Backend

	// Record selects which decisions are audited. Default: RecordDenied.
	Record RecordMode

	// Retention is how long audited decisions are kept. Sweep removes
	// older ones. Zero keeps decisions forever.
	Retention time.Duration

	// Metrics receives decision metrics. Nil disables metrics.
	Metrics *Metrics

	// Logger receives structured logs. Defaults to slog.Default().
	Logger *logging.Logger

	// Tracer records a span per decision and sweep. Nil disables tracing.
	Tracer trace.Tracer

	// RunID is attached to audited decisions and log lines.
	RunID string
}

// SweepResult reports what a sweep removed.
type SweepResult struct {
	// EvictedClients is the number of idle clients dropped from the tracker.
	EvictedClients int

	// PurgedDecisions is the number of audit decisions past retention.
	PurgedDecisions int

	// TrackedClients is the number of clients still tracked afterwards.
	TrackedClients int
}
