// Package ratelimit provides per-client sliding-window admission control.
//
// # Overview
//
// A Tracker answers one question: may this client make another request now?
// It keeps, per client identifier, the timestamps of recently admitted
// requests and admits a request only while fewer than MaxRequests of them
// fall inside the trailing Window.
//
//	tracker, err := ratelimit.NewTracker(4, 2*time.Second)
//	if err != nil {
//	    return err // ErrInvalidConfig
//	}
//
//	if tracker.Allow("10.0.0.7") {
//	    // Request admitted and recorded
//	} else {
//	    // Too many requests; nothing was recorded
//	}
//
// # Sliding Window
//
// The window is evaluated relative to the moment of each call rather than
// fixed buckets. Stale timestamps are pruned lazily, on the next admitted
// call for the same client, so a client's history may briefly hold expired
// entries. EvictIdle removes clients whose history is entirely expired; it
// never changes the outcome of a later Allow.
//
// # Thread Safety
//
// Tracker is safe for concurrent use. One mutex serializes every call across
// all clients; no I/O happens while it is held.
package ratelimit
