// Package history records job executions in a local SQLite database.
// This is run telemetry only: the job registry itself lives in the
// configuration file, never in the database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration
)

// ErrNoRuns is returned when a job has no recorded executions.
var ErrNoRuns = errors.New("history: no recorded runs")

const busyTimeoutMillis = 5000

// Run is one recorded job execution.
type Run struct {
	Job       string
	StartedAt time.Time
	Duration  time.Duration
	OutputLen int
	Err       string // empty on success
}

// Failed reports whether the run ended in an error.
func (r Run) Failed() bool { return r.Err != "" }

// Store persists runs. Safe for concurrent use; SQLite serializes
// writes through a single connection.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the run database at path. The database uses
// WAL mode, a 5 s busy timeout, and a single connection. The schema is
// migrated automatically. The caller owns Close.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("history: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	ctx := context.TODO()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: enable WAL: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMillis)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: set busy_timeout: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one run.
func (s *Store) Record(ctx context.Context, run Run) error {
	startedAt := run.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (job, started_at, duration_ms, output_len, error)
		VALUES (?, ?, ?, ?, ?)`,
		run.Job,
		startedAt.UTC().Format(time.RFC3339Nano),
		run.Duration.Milliseconds(),
		run.OutputLen,
		run.Err,
	)
	if err != nil {
		return fmt.Errorf("history: record run of %q: %w", run.Job, err)
	}

	return nil
}

// Recent returns up to limit runs of job, newest first.
func (s *Store) Recent(ctx context.Context, jobName string, limit int) ([]Run, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT job, started_at, duration_ms, output_len, error
		FROM runs
		WHERE job = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?`,
		jobName, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: recent runs of %q: %w", jobName, err)
	}
	defer func() { _ = rows.Close() }()

	return scanRuns(rows)
}

// Last returns the most recent run of job, or ErrNoRuns.
func (s *Store) Last(ctx context.Context, jobName string) (Run, error) {
	runs, err := s.Recent(ctx, jobName, 1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, fmt.Errorf("%w: %q", ErrNoRuns, jobName)
	}
	return runs[0], nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var (
			run        Run
			startedAt  string
			durationMS int64
		)
		if err := rows.Scan(&run.Job, &startedAt, &durationMS, &run.OutputLen, &run.Err); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("history: parse started_at %q: %w", startedAt, err)
		}
		run.StartedAt = ts
		run.Duration = time.Duration(durationMS) * time.Millisecond

		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate runs: %w", err)
	}
	return runs, nil
}
