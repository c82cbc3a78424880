// Package sqlite stores analysis runs in a local SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chrissnell/freezecompare/internal/log"
	"github.com/chrissnell/freezecompare/internal/storage"
	"github.com/chrissnell/freezecompare/internal/types"
	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	median_freeze_duration REAL NOT NULL,
	sessions_scored INTEGER NOT NULL DEFAULT 0,
	sessions_skipped INTEGER NOT NULL DEFAULT 0,
	overall_f1 REAL,
	overall_sensitivity REAL
);
CREATE TABLE IF NOT EXISTS transitions (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	cohort_id TEXT NOT NULL,
	day TEXT NOT NULL,
	t REAL NOT NULL,
	transition_type TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS bouts (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	cohort_id TEXT NOT NULL,
	day TEXT NOT NULL,
	start_t REAL NOT NULL,
	end_t REAL NOT NULL,
	duration REAL NOT NULL,
	metadata TEXT
);
CREATE TABLE IF NOT EXISTS minute_bins (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	minute INTEGER NOT NULL,
	bout_count INTEGER NOT NULL,
	median_duration REAL,
	mean_duration REAL
);
CREATE TABLE IF NOT EXISTS session_scores (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	cohort_id TEXT NOT NULL,
	day TEXT NOT NULL,
	group_label TEXT,
	frames INTEGER NOT NULL,
	f1 REAL NOT NULL,
	sensitivity REAL NOT NULL,
	failed INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_bouts_run ON bouts(run_id);
CREATE INDEX IF NOT EXISTS idx_transitions_run ON transitions(run_id);
`

// Storage persists analysis runs to SQLite
type Storage struct {
	db     *sql.DB
	dbPath string
}

// RunSummary is one row of the runs table
type RunSummary struct {
	ID                   string    `json:"run_id"`
	CreatedAt            time.Time `json:"created_at"`
	MedianFreezeDuration float64   `json:"median_freeze_duration"`
	SessionsScored       int       `json:"sessions_scored"`
	SessionsSkipped      int       `json:"sessions_skipped"`
}

// New opens or creates the database at dbPath and ensures the schema exists
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create result tables: %w", err)
	}

	return &Storage{db: db, dbPath: dbPath}, nil
}

// StoreRun writes the run and its rows in one transaction
func (s *Storage) StoreRun(ctx context.Context, run *storage.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := run.ID.String()
	var scored, skipped int
	var f1, sensitivity sql.NullFloat64
	if run.Agreement != nil {
		scored = run.Agreement.SessionsScored
		skipped = run.Agreement.SessionsSkipped
		f1 = sql.NullFloat64{Float64: run.Agreement.Overall.F1, Valid: true}
		sensitivity = sql.NullFloat64{Float64: run.Agreement.Overall.Sensitivity, Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, median_freeze_duration, sessions_scored, sessions_skipped, overall_f1, overall_sensitivity)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, run.CreatedAt.UTC().Format(time.RFC3339Nano), run.Median, scored, skipped, f1, sensitivity)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if err := insertTransitions(ctx, tx, id, run.Transitions); err != nil {
		return err
	}
	if err := insertBouts(ctx, tx, id, run.Bouts); err != nil {
		return err
	}
	if err := insertBins(ctx, tx, id, run.Bins); err != nil {
		return err
	}
	if run.Agreement != nil {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO session_scores (run_id, cohort_id, day, group_label, frames, f1, sensitivity, failed) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare session score insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range run.Agreement.Sessions {
			if _, err := stmt.ExecContext(ctx, id, r.Session.Cohort, r.Session.Day, r.Group, r.Frames, r.F1, r.Sensitivity, r.Failed); err != nil {
				return fmt.Errorf("failed to insert session score: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", id, err)
	}

	log.Infof("stored run %s in %s", id, s.dbPath)
	return nil
}

func insertTransitions(ctx context.Context, tx *sql.Tx, id string, transitions []types.Transition) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transitions (run_id, cohort_id, day, t, transition_type) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare transition insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range transitions {
		if _, err := stmt.ExecContext(ctx, id, t.Session.Cohort, t.Session.Day, t.Time, string(t.Kind)); err != nil {
			return fmt.Errorf("failed to insert transition: %w", err)
		}
	}
	return nil
}

func insertBouts(ctx context.Context, tx *sql.Tx, id string, bouts []types.Bout) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO bouts (run_id, cohort_id, day, start_t, end_t, duration, metadata) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare bout insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bouts {
		md, err := json.Marshal(b.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode bout metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, id, b.Session.Cohort, b.Session.Day, b.Start, b.End, b.Duration, string(md)); err != nil {
			return fmt.Errorf("failed to insert bout: %w", err)
		}
	}
	return nil
}

func insertBins(ctx context.Context, tx *sql.Tx, id string, bins []types.MinuteBin) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO minute_bins (run_id, minute, bout_count, median_duration, mean_duration) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare minute bin insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bins {
		if _, err := stmt.ExecContext(ctx, id, b.Minute, b.Count, nullable(b.MedianDuration), nullable(b.MeanDuration)); err != nil {
			return fmt.Errorf("failed to insert minute bin: %w", err)
		}
	}
	return nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// ListRuns returns every stored run, newest first
func (s *Storage) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, created_at, median_freeze_duration, sessions_scored, sessions_skipped FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var created string
		if err := rows.Scan(&r.ID, &created, &r.MedianFreezeDuration, &r.SessionsScored, &r.SessionsSkipped); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("run %s has invalid created_at %q: %w", r.ID, created, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Bouts returns the bouts stored for a run in insertion order
func (s *Storage) Bouts(ctx context.Context, runID string) ([]types.Bout, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cohort_id, day, start_t, end_t, duration, metadata FROM bouts WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bouts: %w", err)
	}
	defer rows.Close()

	var bouts []types.Bout
	for rows.Next() {
		var b types.Bout
		var md sql.NullString
		if err := rows.Scan(&b.Session.Cohort, &b.Session.Day, &b.Start, &b.End, &b.Duration, &md); err != nil {
			return nil, fmt.Errorf("failed to scan bout row: %w", err)
		}
		if md.Valid && md.String != "" && md.String != "null" {
			if err := json.Unmarshal([]byte(md.String), &b.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode bout metadata: %w", err)
			}
		}
		bouts = append(bouts, b)
	}
	return bouts, rows.Err()
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}
