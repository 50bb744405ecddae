// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger persists run history in a SQLite database so past batches
// can be reviewed without digging through manifests.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/officebatch/pkg/types"
)

const dbFile = "officebatch.db"

// Store manages the run-history SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path. An empty path resolves
// to officebatch.db under the user config directory. The schema is created
// on first use.
func Open(path string) (*Store, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolving ledger location: %w", err)
		}
		path = filepath.Join(dir, "officebatch", dbFile)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			mode TEXT NOT NULL,
			engine TEXT,
			source TEXT NOT NULL,
			target TEXT NOT NULL,
			total INTEGER NOT NULL DEFAULT 0,
			success INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			timeout INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			path TEXT NOT NULL,
			outcome TEXT NOT NULL,
			reason TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_run_id ON outcomes(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun records the start of a batch and returns its run ID.
func (s *Store) BeginRun(ctx context.Context, mode types.RunMode, engine, source, target string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, mode, engine, source, target) VALUES (?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), string(mode), engine, source, target,
	)
	if err != nil {
		return 0, fmt.Errorf("recording run start: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}
	return id, nil
}

// RecordOutcome stores one per-file outcome under a run.
func (s *Store) RecordOutcome(ctx context.Context, runID int64, o types.Outcome) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (run_id, path, outcome, reason) VALUES (?, ?, ?, ?)`,
		runID, o.Path, o.Kind.String(), o.Reason,
	)
	if err != nil {
		return fmt.Errorf("recording outcome for %s: %w", o.Path, err)
	}
	return nil
}

// FinishRun closes out a run with its final counters.
func (s *Store) FinishRun(ctx context.Context, runID int64, stats types.BatchStats) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, total = ?, success = ?, failed = ?, timeout = ?, skipped = ?
		 WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339),
		stats.Total, stats.Success, stats.Failed, stats.Timeout, stats.Skipped,
		runID,
	)
	if err != nil {
		return fmt.Errorf("recording run finish: %w", err)
	}
	return nil
}

// RunSummary is one row of run history.
type RunSummary struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Mode       string
	Engine     string
	Source     string
	Target     string
	Stats      types.BatchStats
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, mode, engine, source, target,
		        total, success, failed, timeout, skipped
		 FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying run history: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var started string
		var finished sql.NullString
		if err := rows.Scan(&r.ID, &started, &finished, &r.Mode, &r.Engine,
			&r.Source, &r.Target,
			&r.Stats.Total, &r.Stats.Success, &r.Stats.Failed,
			&r.Stats.Timeout, &r.Stats.Skipped); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		if finished.Valid {
			r.FinishedAt, _ = time.Parse(time.RFC3339, finished.String)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Failures returns the recorded failure outcomes of one run.
func (s *Store) Failures(ctx context.Context, runID int64) ([]types.ErrorRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, reason FROM outcomes
		 WHERE run_id = ? AND outcome IN ('failed', 'timeout') ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying run failures: %w", err)
	}
	defer rows.Close()

	var out []types.ErrorRecord
	for rows.Next() {
		var rec types.ErrorRecord
		if err := rows.Scan(&rec.Path, &rec.Reason); err != nil {
			return nil, fmt.Errorf("scanning failure row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
