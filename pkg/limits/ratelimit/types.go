package ratelimit

import (
	"errors"
	"time"
)

// ErrInvalidConfig is returned by NewTracker when the request limit or the
// window is not positive.
var ErrInvalidConfig = errors.New("invalid rate limit configuration")

// Clock returns the current time. The default clock is time.Now, whose
// readings carry the monotonic clock used for all age computations.
type Clock func() time.Time

// Option configures optional Tracker behavior.
type Option func(*Tracker)

// WithClock overrides the time source used by the tracker.
// A nil clock is ignored.
func WithClock(clock Clock) Option {
	return func(t *Tracker) {
		if clock != nil {
			t.now = clock
		}
	}
}

// Stats is a point-in-time view of tracker occupancy.
type Stats struct {
	// Clients is the number of client buckets held.
	Clients int

	// Timestamps is the total number of recorded timestamps across clients,
	// including stale entries not yet pruned.
	Timestamps int
}
