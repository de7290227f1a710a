package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

var baseTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// backendFactories lets every behavioral test run against each backend.
func backendFactories() map[string]func(t *testing.T) Backend {
	return map[string]func(t *testing.T) Backend{
		"memory": func(t *testing.T) Backend {
			return NewMemoryBackend()
		},
		"sqlite": func(t *testing.T) Backend {
			b, err := NewSQLiteBackendWithConfig(SQLiteBackendConfig{
				DBPath:             filepath.Join(t.TempDir(), "audit.db"),
				CheckpointInterval: time.Hour,
			})
			if err != nil {
				t.Fatalf("Failed to create SQLite backend: %v", err)
			}
			return b
		},
	}
}

func ptr[T any](v T) *T { return &v }

func seed(t *testing.T, b Backend, decisions ...*Decision) {
	t.Helper()
	for _, d := range decisions {
		if err := b.Record(context.Background(), d); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
}

func TestBackend_RecordAndQuery(t *testing.T) {
	for name, factory := range backendFactories() {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)
			defer backend.Close()

			d := NewDecision("10.0.0.7", false, baseTime)
			d.RunID = "run-1"
			seed(t, backend, d)

			got, err := backend.Query(context.Background(), nil)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("Expected 1 decision, got %d", len(got))
			}

			if got[0].ID != d.ID {
				t.Errorf("Expected ID %s, got %s", d.ID, got[0].ID)
			}
			if got[0].ClientID != "10.0.0.7" {
				t.Errorf("Expected client 10.0.0.7, got %q", got[0].ClientID)
			}
			if got[0].Allowed {
				t.Error("Expected denied decision")
			}
			if !got[0].Timestamp.Equal(baseTime) {
				t.Errorf("Expected timestamp %v, got %v", baseTime, got[0].Timestamp)
			}
			if got[0].RunID != "run-1" {
				t.Errorf("Expected run id run-1, got %q", got[0].RunID)
			}
		})
	}
}

func TestBackend_AssignsMissingID(t *testing.T) {
	for name, factory := range backendFactories() {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)
			defer backend.Close()

			d := &Decision{ClientID: "alice", Allowed: true, Timestamp: baseTime}
			seed(t, backend, d)

			if d.ID == "" {
				t.Error("Expected Record to assign an ID")
			}
		})
	}
}

func TestBackend_InvalidDecision(t *testing.T) {
	for name, factory := range backendFactories() {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)
			defer backend.Close()

			ctx := context.Background()

			if err := backend.Record(ctx, nil); !errors.Is(err, ErrInvalidDecision) {
				t.Errorf("Record(nil) error = %v, want ErrInvalidDecision", err)
			}
			if err := backend.Record(ctx, &Decision{ClientID: "alice"}); !errors.Is(err, ErrInvalidDecision) {
				t.Errorf("Record(zero timestamp) error = %v, want ErrInvalidDecision", err)
			}
		})
	}
}

func TestBackend_QueryFilters(t *testing.T) {
	for name, factory := range backendFactories() {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)
			defer backend.Close()

			tagged := NewDecision("alice", false, baseTime.Add(1*time.Second))
			tagged.RunID = "run-1"

			seed(t, backend,
				NewDecision("alice", true, baseTime),
				tagged,
				NewDecision("bob", true, baseTime.Add(2*time.Second)),
				NewDecision("", false, baseTime.Add(3*time.Second)),
				NewDecision("alice", false, baseTime.Add(4*time.Second)),
			)

			tests := []struct {
				name      string
				filter    *Filter
				wantCount int
			}{
				{"nil filter", nil, 5},
				{"empty filter", &Filter{}, 5},
				{"by client", &Filter{ClientID: ptr("alice")}, 3},
				{"by empty client", &Filter{ClientID: ptr("")}, 1},
				{"denied only", &Filter{Allowed: ptr(false)}, 3},
				{"allowed only", &Filter{Allowed: ptr(true)}, 2},
				{"client and outcome", &Filter{ClientID: ptr("alice"), Allowed: ptr(false)}, 2},
				{"by run", &Filter{RunID: "run-1"}, 1},
				{"since", &Filter{Since: baseTime.Add(2 * time.Second)}, 3},
				{"until is exclusive", &Filter{Until: baseTime.Add(2 * time.Second)}, 2},
				{"range", &Filter{Since: baseTime.Add(time.Second), Until: baseTime.Add(4 * time.Second)}, 3},
				{"limit", &Filter{Limit: 2}, 2},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					got, err := backend.Query(context.Background(), tt.filter)
					if err != nil {
						t.Fatalf("Query failed: %v", err)
					}
					if len(got) != tt.wantCount {
						t.Errorf("Expected %d decisions, got %d", tt.wantCount, len(got))
					}
				})
			}
		})
	}
}

func TestBackend_QueryNewestFirst(t *testing.T) {
	for name, factory := range backendFactories() {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)
			defer backend.Close()

			seed(t, backend,
				NewDecision("a", true, baseTime.Add(2*time.Second)),
				NewDecision("b", true, baseTime),
				NewDecision("c", true, baseTime.Add(1*time.Second)),
			)

			got, err := backend.Query(context.Background(), &Filter{Limit: 2})
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(got) != 2 || got[0].ClientID != "a" || got[1].ClientID != "c" {
				t.Errorf("Expected [a c], got %v", clientIDs(got))
			}
		})
	}
}

func TestBackend_Cleanup(t *testing.T) {
	for name, factory := range backendFactories() {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)
			defer backend.Close()

			ctx := context.Background()
			seed(t, backend,
				NewDecision("old-1", false, baseTime.Add(-2*time.Hour)),
				NewDecision("old-2", false, baseTime.Add(-90*time.Minute)),
				NewDecision("new", false, baseTime),
			)

			deleted, err := backend.Cleanup(ctx, baseTime.Add(-time.Hour))
			if err != nil {
				t.Fatalf("Cleanup failed: %v", err)
			}
			if deleted != 2 {
				t.Errorf("Expected 2 deleted, got %d", deleted)
			}

			got, err := backend.Query(ctx, nil)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(got) != 1 || got[0].ClientID != "new" {
				t.Errorf("Expected only [new] to remain, got %v", clientIDs(got))
			}

			// Nothing left to remove
			deleted, err = backend.Cleanup(ctx, baseTime.Add(-time.Hour))
			if err != nil {
				t.Fatalf("Cleanup failed: %v", err)
			}
			if deleted != 0 {
				t.Errorf("Expected 0 deleted on second cleanup, got %d", deleted)
			}
		})
	}
}

func TestBackend_Closed(t *testing.T) {
	for name, factory := range backendFactories() {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)

			if err := backend.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}
			if err := backend.Close(); err != nil {
				t.Errorf("second Close failed: %v", err)
			}

			ctx := context.Background()
			if err := backend.Record(ctx, NewDecision("a", true, baseTime)); !errors.Is(err, ErrClosed) {
				t.Errorf("Record after Close error = %v, want ErrClosed", err)
			}
			if _, err := backend.Query(ctx, nil); !errors.Is(err, ErrClosed) {
				t.Errorf("Query after Close error = %v, want ErrClosed", err)
			}
			if _, err := backend.Cleanup(ctx, baseTime); !errors.Is(err, ErrClosed) {
				t.Errorf("Cleanup after Close error = %v, want ErrClosed", err)
			}
		})
	}
}

func TestBackend_ConcurrentRecord(t *testing.T) {
	for name, factory := range backendFactories() {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)
			defer backend.Close()

			const (
				workers   = 10
				perWorker = 20
			)

			var wg sync.WaitGroup
			errs := make(chan error, workers*perWorker)
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < perWorker; i++ {
						ts := baseTime.Add(time.Duration(w*perWorker+i) * time.Millisecond)
						if err := backend.Record(context.Background(), NewDecision(fmt.Sprintf("client-%d", w), i%2 == 0, ts)); err != nil {
							errs <- err
						}
					}
				}(w)
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				t.Errorf("Record failed: %v", err)
			}

			got, err := backend.Query(context.Background(), nil)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(got) != workers*perWorker {
				t.Errorf("Expected %d decisions, got %d", workers*perWorker, len(got))
			}
		})
	}
}

func TestMemoryBackend_MaxEntries(t *testing.T) {
	backend := NewMemoryBackendWithConfig(MemoryBackendConfig{MaxEntries: 3})
	defer backend.Close()

	for i := 0; i < 5; i++ {
		seed(t, backend, NewDecision(fmt.Sprintf("client-%d", i), true, baseTime.Add(time.Duration(i)*time.Second)))
	}

	if backend.Size() != 3 {
		t.Fatalf("Expected size 3, got %d", backend.Size())
	}

	got, err := backend.Query(context.Background(), nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	ids := clientIDs(got)
	want := []string{"client-4", "client-3", "client-2"}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, ids)
			break
		}
	}
}

func TestMemoryBackend_QueryReturnsCopies(t *testing.T) {
	backend := NewMemoryBackend()
	defer backend.Close()

	d := NewDecision("alice", true, baseTime)
	seed(t, backend, d)

	// Mutating the recorded value or a query result must not reach the store
	d.ClientID = "mallory"
	got, _ := backend.Query(context.Background(), nil)
	got[0].Allowed = false

	again, _ := backend.Query(context.Background(), nil)
	if again[0].ClientID != "alice" || !again[0].Allowed {
		t.Errorf("Stored decision was mutated: %+v", again[0])
	}
}

func TestSQLiteBackend_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "audit.db")

	backend, err := NewSQLiteBackend(dbPath)
	if err != nil {
		t.Fatalf("Failed to create SQLite backend: %v", err)
	}
	if backend.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", backend.Path(), dbPath)
	}
	seed(t, backend, NewDecision("alice", false, baseTime))
	if err := backend.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteBackend(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen SQLite backend: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Query(context.Background(), &Filter{ClientID: ptr("alice")})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Expected decision to survive reopen, got %d", len(got))
	}
}

func TestNewSQLiteBackend_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteBackend(""); err == nil {
		t.Error("Expected error for empty path")
	}
}

func TestFilter_Matches(t *testing.T) {
	d := &Decision{ClientID: "alice", Allowed: false, Timestamp: baseTime, RunID: "run-1"}

	tests := []struct {
		name   string
		filter *Filter
		want   bool
	}{
		{"nil", nil, true},
		{"client match", &Filter{ClientID: ptr("alice")}, true},
		{"client mismatch", &Filter{ClientID: ptr("bob")}, false},
		{"outcome mismatch", &Filter{Allowed: ptr(true)}, false},
		{"run match", &Filter{RunID: "run-1"}, true},
		{"run mismatch", &Filter{RunID: "run-2"}, false},
		{"since equal", &Filter{Since: baseTime}, true},
		{"until equal", &Filter{Until: baseTime}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(d); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func clientIDs(decisions []*Decision) []string {
	ids := make([]string, len(decisions))
	for i, d := range decisions {
		ids[i] = d.ClientID
	}
	return ids
}
