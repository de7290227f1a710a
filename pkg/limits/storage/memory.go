package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryBackend implements Backend using in-memory storage.
// All data is lost when the process exits.
//
// MemoryBackend is thread-safe and supports concurrent access using sync.RWMutex.
type MemoryBackend struct {
	// decisions are kept in recording order.
	decisions []*Decision

	// mu protects access to decisions and closed.
	mu sync.RWMutex

	// maxEntries is the maximum number of decisions before the oldest
	// recorded one is dropped.
	maxEntries int

	closed bool
}

// MemoryBackendConfig configures the memory backend.
type MemoryBackendConfig struct {
	// MaxEntries is the maximum number of decisions to store.
	// Oldest entries are evicted when this limit is reached.
	// Default: 10,000
	MaxEntries int
}

// NewMemoryBackend creates a new in-memory storage backend with default settings.
func NewMemoryBackend() *MemoryBackend {
	return NewMemoryBackendWithConfig(MemoryBackendConfig{})
}

// NewMemoryBackendWithConfig creates a new in-memory backend with custom configuration.
func NewMemoryBackendWithConfig(cfg MemoryBackendConfig) *MemoryBackend {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10000
	}

	return &MemoryBackend{
		decisions:  make([]*Decision, 0, min(cfg.MaxEntries, 1024)),
		maxEntries: cfg.MaxEntries,
	}
}

// Record appends a decision, evicting the oldest recorded one when full.
// The backend stores its own copy of d.
func (m *MemoryBackend) Record(ctx context.Context, d *Decision) error {
	if err := d.prepare(); err != nil {
		return err
	}
	stored := *d

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if len(m.decisions) >= m.maxEntries {
		n := copy(m.decisions, m.decisions[1:])
		m.decisions[n] = nil
		m.decisions = m.decisions[:n]
	}
	m.decisions = append(m.decisions, &stored)

	return nil
}

// Query returns copies of the decisions matching filter, newest first.
func (m *MemoryBackend) Query(ctx context.Context, filter *Filter) ([]*Decision, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrClosed
	}

	var results []*Decision
	for _, d := range m.decisions {
		if filter.Matches(d) {
			c := *d
			results = append(results, &c)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})

	if limit := filter.limit(); limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// Cleanup removes decisions recorded before olderThan.
func (m *MemoryBackend) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	kept := m.decisions[:0]
	for _, d := range m.decisions {
		if !d.Timestamp.Before(olderThan) {
			kept = append(kept, d)
		}
	}
	deleted := len(m.decisions) - len(kept)

	// Release references held past the new length
	for i := len(kept); i < len(m.decisions); i++ {
		m.decisions[i] = nil
	}
	m.decisions = kept

	return deleted, nil
}

// Close releases the stored decisions. Close is idempotent.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.decisions = nil
	return nil
}

// Size returns the current number of stored decisions.
func (m *MemoryBackend) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.decisions)
}
