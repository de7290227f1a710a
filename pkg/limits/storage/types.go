package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidDecision is returned when a decision is nil or incomplete.
	ErrInvalidDecision = errors.New("invalid decision")

	// ErrClosed is returned by backends used after Close.
	ErrClosed = errors.New("storage backend closed")
)

// Backend defines the interface for the decision audit log.
// Implementations must be thread-safe and support concurrent access.
type Backend interface {
	// Record appends a decision. A decision without an ID is assigned one.
	Record(ctx context.Context, d *Decision) error

	// Query returns decisions matching the filter, newest first.
	Query(ctx context.Context, filter *Filter) ([]*Decision, error)

	// Cleanup removes decisions recorded before olderThan.
	// Returns the number of decisions deleted and any error.
	Cleanup(ctx context.Context, olderThan time.Time) (int, error)

	// Close releases any resources held by the backend.
	// The backend should not be used after calling Close.
	Close() error
}

// Decision is one admission outcome. It records what the tracker answered,
// never the tracker's internal state.
type Decision struct {
	// ID uniquely identifies the decision (UUID).
	ID string `json:"id"`

	// ClientID is the identifier the decision was made for. May be empty.
	ClientID string `json:"client_id"`

	// Allowed is the tracker's answer.
	Allowed bool `json:"allowed"`

	// Timestamp is when the decision was made.
	Timestamp time.Time `json:"timestamp"`

	// RunID correlates decisions made by one process or CLI invocation.
	RunID string `json:"run_id,omitempty"`
}

// NewDecision creates a decision with a fresh UUID.
func NewDecision(clientID string, allowed bool, ts time.Time) *Decision {
	return &Decision{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		Allowed:   allowed,
		Timestamp: ts,
	}
}

// prepare validates d and fills in a missing ID.
func (d *Decision) prepare() error {
	if d == nil {
		return fmt.Errorf("%w: decision cannot be nil", ErrInvalidDecision)
	}
	if d.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidDecision)
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// Filter selects decisions. Zero-valued fields match everything.
type Filter struct {
	// ClientID restricts results to one client when non-nil. A pointer
	// is used because the empty string is a valid client identifier.
	ClientID *string

	// Allowed restricts results to admitted (true) or denied (false)
	// decisions when non-nil.
	Allowed *bool

	// RunID restricts results to one run when non-empty.
	RunID string

	// Since includes decisions at or after this time.
	Since time.Time

	// Until includes decisions before this time.
	Until time.Time

	// Limit caps the number of results. 0 means no limit.
	Limit int
}

// Matches reports whether d satisfies every set field of the filter.
// A nil filter matches everything.
func (f *Filter) Matches(d *Decision) bool {
	if f == nil {
		return true
	}
	if f.ClientID != nil && d.ClientID != *f.ClientID {
		return false
	}
	if f.Allowed != nil && d.Allowed != *f.Allowed {
		return false
	}
	if f.RunID != "" && d.RunID != f.RunID {
		return false
	}
	if !f.Since.IsZero() && d.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !d.Timestamp.Before(f.Until) {
		return false
	}
	return true
}

func (f *Filter) limit() int {
	if f == nil {
		return 0
	}
	return f.Limit
}
