// Package history keeps a local SQLite log of completed script runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store records runs. A Store opened with an empty path is disabled and
// every method is a no-op.
type Store struct {
	db *sql.DB
}

// Run is one completed execution.
type Run struct {
	RunID       string
	Timestamp   time.Time
	Script      string
	Repo        string
	Elevated    bool
	Succeeded   bool
	ExitCode    int
	Duration    time.Duration
	HasGuidance bool
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return &Store{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		timestamp TEXT NOT NULL,
		script TEXT NOT NULL,
		repo TEXT NOT NULL,
		elevated INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		exit_code INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		has_guidance INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_script ON runs(script);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Enabled reports whether runs are persisted.
func (s *Store) Enabled() bool { return s.db != nil }

// Record stores a run.
func (s *Store) Record(ctx context.Context, r Run) error {
	if s.db == nil {
		return nil
	}
	const query = `
		INSERT INTO runs
		(run_id, timestamp, script, repo, elevated, succeeded, exit_code, duration_ms, has_guidance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		r.RunID,
		r.Timestamp.UTC().Format(timeLayout),
		r.Script,
		r.Repo,
		r.Elevated,
		r.Succeeded,
		r.ExitCode,
		r.Duration.Milliseconds(),
		r.HasGuidance,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.RunID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if s.db == nil {
		return nil, nil
	}
	const query = `
		SELECT run_id, timestamp, script, repo, elevated, succeeded, exit_code, duration_ms, has_guidance
		FROM runs
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			ts         string
			durationMS int64
		)
		if err := rows.Scan(&r.RunID, &ts, &r.Script, &r.Repo, &r.Elevated, &r.Succeeded,
			&r.ExitCode, &durationMS, &r.HasGuidance); err != nil {
			return nil, err
		}
		if r.Timestamp, err = time.Parse(timeLayout, ts); err != nil {
			return nil, fmt.Errorf("run %s: bad timestamp %q: %w", r.RunID, ts, err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SuccessRate returns the fraction of recorded runs of script that succeeded.
func (s *Store) SuccessRate(ctx context.Context, script string) (float64, error) {
	if s.db == nil {
		return 0, nil
	}
	const query = `
		SELECT
			COUNT(*) as total,
			COALESCE(SUM(CASE WHEN succeeded = 1 THEN 1 ELSE 0 END), 0) as ok
		FROM runs
		WHERE script = ?
	`
	var total, ok int
	if err := s.db.QueryRowContext(ctx, query, script).Scan(&total, &ok); err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	return float64(ok) / float64(total), nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
