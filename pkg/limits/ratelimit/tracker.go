package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Tracker admits or denies requests per client so that no client exceeds
// maxRequests recorded requests within a trailing window.
//
// # Algorithm
//
//  1. Read the current time
//  2. Create an empty history for unseen clients
//  3. If the history holds maxRequests or more entries, look at the single
//     oldest entry: deny (without touching the history) if it is still inside
//     the window, otherwise drop exactly that entry
//  4. Drop every remaining entry that has aged out of the window
//  5. Record the current time and admit
//
// Step 3 releases one slot per admitted call; the general prune in step 4
// only ever runs on the admitted path.
//
// # Thread Safety
//
// A single mutex guards the whole history map. Every call, for any client,
// runs steps 1-5 under that mutex, so calls are serialized in lock order and
// never observe a partially updated history.
type Tracker struct {
	maxRequests int
	window      time.Duration
	now         Clock

	mu      sync.Mutex
	history map[string][]time.Time
}

// NewTracker creates a tracker allowing at most maxRequests requests per
// client within window.
//
// Example:
//
//	tracker, err := ratelimit.NewTracker(100, time.Minute)
//	if err != nil {
//	    return err
//	}
//	if !tracker.Allow(clientIP) {
//	    // Too many requests
//	}
func NewTracker(maxRequests int, window time.Duration, opts ...Option) (*Tracker, error) {
	if maxRequests <= 0 {
		return nil, fmt.Errorf("%w: max requests must be positive, got %d", ErrInvalidConfig, maxRequests)
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %s", ErrInvalidConfig, window)
	}

	t := &Tracker{
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		history:     make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// NewTrackerSeconds is NewTracker with the window given in (possibly
// fractional) seconds.
func NewTrackerSeconds(maxRequests int, windowSeconds float64, opts ...Option) (*Tracker, error) {
	if math.IsNaN(windowSeconds) || windowSeconds <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %vs", ErrInvalidConfig, windowSeconds)
	}
	return NewTracker(maxRequests, time.Duration(windowSeconds*float64(time.Second)), opts...)
}

// Allow reports whether clientID may make another request now, recording
// the request when it is admitted. A denied call leaves the client's
// history untouched.
//
// Any string, including the empty string, is a valid client identifier.
func (t *Tracker) Allow(clientID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()

	stamps, ok := t.history[clientID]
	if !ok {
		stamps = make([]time.Time, 0, t.maxRequests)
		t.history[clientID] = stamps
	}

	if len(stamps) >= t.maxRequests {
		oldest := oldestIndex(stamps)
		if now.Sub(stamps[oldest]) < t.window {
			return false
		}
		stamps = append(stamps[:oldest], stamps[oldest+1:]...)
	}

	kept := stamps[:0]
	for _, ts := range stamps {
		if now.Sub(ts) < t.window {
			kept = append(kept, ts)
		}
	}

	t.history[clientID] = append(kept, now)
	return true
}

// oldestIndex returns the index of the earliest timestamp. Insertion order
// normally matches time order, but the minimum is searched explicitly.
// stamps must not be empty.
func oldestIndex(stamps []time.Time) int {
	idx := 0
	for i := 1; i < len(stamps); i++ {
		if stamps[i].Before(stamps[idx]) {
			idx = i
		}
	}
	return idx
}

// MaxRequests returns the configured per-window request limit.
func (t *Tracker) MaxRequests() int {
	return t.maxRequests
}

// Window returns the configured window length.
func (t *Tracker) Window() time.Duration {
	return t.window
}

// Pending returns the number of timestamps recorded for clientID, including
// stale entries that the next admitted call will prune.
func (t *Tracker) Pending(clientID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.history[clientID])
}

// Clients returns the number of client buckets currently held.
func (t *Tracker) Clients() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.history)
}

// Stats returns the current occupancy of the tracker.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := Stats{Clients: len(t.history)}
	for _, stamps := range t.history {
		stats.Timestamps += len(stamps)
	}
	return stats
}

// EvictIdle removes clients whose recorded timestamps have all aged out of
// the window and returns how many were removed.
//
// An evicted client is indistinguishable from an unseen one: the next Allow
// admits either and leaves a single fresh timestamp behind.
func (t *Tracker) EvictIdle() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	evicted := 0
	for clientID, stamps := range t.history {
		if t.idleLocked(stamps, now) {
			delete(t.history, clientID)
			evicted++
		}
	}
	return evicted
}

// idleLocked reports whether every timestamp is outside the window.
// Caller must hold t.mu.
func (t *Tracker) idleLocked(stamps []time.Time, now time.Time) bool {
	for _, ts := range stamps {
		if now.Sub(ts) < t.window {
			return false
		}
	}
	return true
}

// Reset drops all recorded history.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.history = make(map[string][]time.Time)
}
