package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteBackend implements Backend using SQLite for persistence.
// Decisions survive restarts, which makes the audit log usable after the
// process that produced it has exited. Tracker state is never written here.
//
// SQLiteBackend uses a write-ahead log (WAL) for better concurrent performance
// and periodic checkpointing to keep the WAL file bounded.
type SQLiteBackend struct {
	db                 *sql.DB
	dbPath             string
	checkpointInterval time.Duration
	done               chan struct{}
	mu                 sync.RWMutex
	closeOnce          sync.Once
	closed             bool

	recordStmt  *sql.Stmt
	cleanupStmt *sql.Stmt
}

// SQLiteBackendConfig configures the SQLite backend.
type SQLiteBackendConfig struct {
	// DBPath is the path to the SQLite database file. Parent directories
	// are created as needed.
	DBPath string

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	CheckpointInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteBackend creates a new SQLite storage backend with default settings.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	return NewSQLiteBackendWithConfig(SQLiteBackendConfig{DBPath: dbPath})
}

// NewSQLiteBackendWithConfig creates a new SQLite backend with custom configuration.
func NewSQLiteBackendWithConfig(cfg SQLiteBackendConfig) (*SQLiteBackend, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		cfg.DBPath, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	backend := &SQLiteBackend{
		db:                 db,
		dbPath:             cfg.DBPath,
		checkpointInterval: cfg.CheckpointInterval,
		done:               make(chan struct{}),
	}

	if err := backend.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := backend.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go backend.checkpointLoop()

	return backend, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteBackend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		allowed INTEGER NOT NULL,
		decided_at INTEGER NOT NULL,
		run_id TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_decided_at ON decisions(decided_at);
	CREATE INDEX IF NOT EXISTS idx_decisions_client ON decisions(client_id, decided_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteBackend) prepareStatements() error {
	var err error

	s.recordStmt, err = s.db.Prepare(`
		INSERT INTO decisions (id, client_id, allowed, decided_at, run_id)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record statement: %w", err)
	}

	s.cleanupStmt, err = s.db.Prepare(`
		DELETE FROM decisions
		WHERE decided_at < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cleanup statement: %w", err)
	}

	return nil
}

// Record inserts a decision.
func (s *SQLiteBackend) Record(ctx context.Context, d *Decision) error {
	if err := d.prepare(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	_, err := s.recordStmt.ExecContext(ctx,
		d.ID, d.ClientID, boolToInt(d.Allowed), d.Timestamp.UnixNano(), d.RunID)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}

	return nil
}

// Query returns decisions matching filter, newest first.
func (s *SQLiteBackend) Query(ctx context.Context, filter *Filter) ([]*Decision, error) {
	query, args := buildQuery(filter)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []*Decision
	for rows.Next() {
		var (
			d         Decision
			allowed   int
			decidedAt int64
		)

		if err := rows.Scan(&d.ID, &d.ClientID, &allowed, &decidedAt, &d.RunID); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		d.Allowed = allowed != 0
		d.Timestamp = time.Unix(0, decidedAt)
		decisions = append(decisions, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return decisions, nil
}

// buildQuery translates a filter into a SELECT statement and its arguments.
func buildQuery(filter *Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter != nil {
		if filter.ClientID != nil {
			conds = append(conds, "client_id = ?")
			args = append(args, *filter.ClientID)
		}
		if filter.Allowed != nil {
			conds = append(conds, "allowed = ?")
			args = append(args, boolToInt(*filter.Allowed))
		}
		if filter.RunID != "" {
			conds = append(conds, "run_id = ?")
			args = append(args, filter.RunID)
		}
		if !filter.Since.IsZero() {
			conds = append(conds, "decided_at >= ?")
			args = append(args, filter.Since.UnixNano())
		}
		if !filter.Until.IsZero() {
			conds = append(conds, "decided_at < ?")
			args = append(args, filter.Until.UnixNano())
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT id, client_id, allowed, decided_at, run_id FROM decisions")
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY decided_at DESC, rowid DESC")
	if limit := filter.limit(); limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	return sb.String(), args
}

// Cleanup removes decisions recorded before olderThan.
func (s *SQLiteBackend) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	result, err := s.cleanupStmt.ExecContext(ctx, olderThan.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(deleted), nil
}

// Close releases any resources held by the backend.
// Close is idempotent and safe to call multiple times.
func (s *SQLiteBackend) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true

		if s.recordStmt != nil {
			s.recordStmt.Close()
		}
		if s.cleanupStmt != nil {
			s.cleanupStmt.Close()
		}

		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		closeErr = s.db.Close()
	})

	return closeErr
}

// Path returns the database file path.
func (s *SQLiteBackend) Path() string {
	return s.dbPath
}

// checkpointLoop runs periodic WAL checkpoints.
func (s *SQLiteBackend) checkpointLoop() {
	ticker := time.NewTicker(s.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			if !s.closed {
				_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
			}
			s.mu.Unlock()
		case <-s.done:
			return
		}
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
