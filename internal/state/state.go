// Package state records pipeline run history (ETL loads and training
// runs) in a small SQLite database, separate from the analytical store.
package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

// RunKind labels what a run did.
type RunKind string

const (
	RunKindETL   RunKind = "etl"
	RunKindTrain RunKind = "train"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// Run is one recorded pipeline invocation.
type Run struct {
	ID          string
	Kind        RunKind
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
	Summary     string
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	status TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	completed_at TIMESTAMP,
	error TEXT,
	summary TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
`

// Store is the SQLite-backed run history.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the run-history database at path.
// Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize state schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StartRun records a new running entry and returns it.
func (s *Store) StartRun(kind RunKind) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (id, kind, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, string(run.Kind), string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run finished with the given status, optional error
// message and a short human-readable summary.
func (s *Store) CompleteRun(id string, status RunStatus, errMsg, summary string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ?, summary = ? WHERE id = ?`,
		string(status), now, errMsg, summary, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, most recent first.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	rows, err := s.db.Query(
		`SELECT id, kind, status, started_at, completed_at, error, summary
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Run
	for rows.Next() {
		run := &Run{}
		var (
			kind, status string
			completedAt  sql.NullTime
			errMsg       sql.NullString
			summary      sql.NullString
		)
		if err := rows.Scan(&run.ID, &kind, &status, &run.StartedAt, &completedAt, &errMsg, &summary); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Kind = RunKind(kind)
		run.Status = RunStatus(status)
		if completedAt.Valid {
			t := completedAt.Time
			run.CompletedAt = &t
		}
		run.Error = errMsg.String
		run.Summary = summary.String
		out = append(out, run)
	}
	return out, rows.Err()
}
