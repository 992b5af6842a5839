// Package history keeps an append-only ledger of finished publish runs.
// It records outcomes only; runs are never resumed from it.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one finished run.
type Record struct {
	RunID      string
	Strategy   string
	Mode       string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string // succeeded|failed
	FailedStep string
	ErrorKind  string
	Message    string
	Artifact   string
	Committed  bool
	Pushed     bool
	LocalTip   string
	RemoteTip  string
}

// SQLiteStore implements the ledger using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and creates) the ledger at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		strategy TEXT NOT NULL,
		mode TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		failed_step TEXT,
		error_kind TEXT,
		message TEXT,
		artifact TEXT,
		committed INTEGER NOT NULL DEFAULT 0,
		pushed INTEGER NOT NULL DEFAULT 0,
		local_tip TEXT,
		remote_tip TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_strategy ON runs(strategy);
	CREATE INDEX IF NOT EXISTS idx_runs_finished ON runs(finished_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends a finished run.
func (s *SQLiteStore) Record(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO runs
		(run_id, strategy, mode, started_at, finished_at, outcome, failed_step, error_kind, message, artifact, committed, pushed, local_tip, remote_tip)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Strategy, r.Mode, r.StartedAt.UnixMilli(), r.FinishedAt.UnixMilli(), r.Outcome,
		r.FailedStep, r.ErrorKind, r.Message, r.Artifact, r.Committed, r.Pushed, r.LocalTip, r.RemoteTip,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first. limit <= 0 means all.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT run_id, strategy, mode, started_at, finished_at, outcome, failed_step, error_kind,
		message, artifact, committed, pushed, local_tip, remote_tip FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var started, finished int64
		var failedStep, errorKind, message, artifact, localTip, remoteTip sql.NullString
		if err := rows.Scan(&r.RunID, &r.Strategy, &r.Mode, &started, &finished, &r.Outcome,
			&failedStep, &errorKind, &message, &artifact, &r.Committed, &r.Pushed, &localTip, &remoteTip); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		r.FinishedAt = time.UnixMilli(finished).UTC()
		r.FailedStep = failedStep.String
		r.ErrorKind = errorKind.String
		r.Message = message.String
		r.Artifact = artifact.String
		r.LocalTip = localTip.String
		r.RemoteTip = remoteTip.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
