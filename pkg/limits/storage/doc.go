// Package storage provides backends for the admission decision audit log.
//
// # Overview
//
// The audit log records what the tracker decided (client, outcome, time),
// not the tracker's counters; tracker state is never persisted. Two
// implementations are provided:
//
//   - Memory: bounded in-memory log, oldest decisions dropped first
//   - SQLite: file-based log using the cgo-free modernc.org/sqlite driver
//
// # Usage
//
//	backend := storage.NewMemoryBackend()
//	defer backend.Close()
//
//	err := backend.Record(ctx, storage.NewDecision("10.0.0.7", false, time.Now()))
//
//	denied := false
//	decisions, err := backend.Query(ctx, &storage.Filter{Allowed: &denied, Limit: 50})
//
//	// Retention
//	removed, err := backend.Cleanup(ctx, time.Now().Add(-24*time.Hour))
//
// # Thread Safety
//
// All storage backends are thread-safe and support concurrent access
// from multiple goroutines. Locking is handled internally by each backend.
package storage
