package tracing

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys use the "turnstile.*" namespace. Client identifiers are
// never recorded on spans.
const (
	AttrResult      = attribute.Key("turnstile.result")
	AttrMaxRequests = attribute.Key("turnstile.max_requests")
	AttrWindowMS    = attribute.Key("turnstile.window_ms")
	AttrRunID       = attribute.Key("turnstile.run_id")
	AttrAudited     = attribute.Key("turnstile.audit.recorded")

	AttrEvictedClients  = attribute.Key("turnstile.sweep.evicted_clients")
	AttrPurgedDecisions = attribute.Key("turnstile.sweep.purged_decisions")
	AttrTrackedClients  = attribute.Key("turnstile.sweep.tracked_clients")
)

// LimitAttributes describes the limiter a decision was made against.
func LimitAttributes(maxRequests int, window time.Duration) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrMaxRequests.Int(maxRequests),
		AttrWindowMS.Int64(window.Milliseconds()),
	}
}

// SweepAttributes describes the outcome of an eviction and retention sweep.
func SweepAttributes(evicted, purged, tracked int) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrEvictedClients.Int(evicted),
		AttrPurgedDecisions.Int(purged),
		AttrTrackedClients.Int(tracked),
	}
}
