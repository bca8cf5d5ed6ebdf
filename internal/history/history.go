// Package history keeps a SQLite archive of past runs and their per-job
// outcomes. It is an optional record; runs never consult it to decide what
// to print.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdfspool/pdfspool/internal/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	root        TEXT NOT NULL,
	dry_run     INTEGER NOT NULL DEFAULT 0,
	discovered  INTEGER NOT NULL DEFAULT 0,
	submitted   INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	batches     INTEGER NOT NULL DEFAULT 0,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS run_jobs (
	run_id       TEXT NOT NULL,
	path         TEXT NOT NULL,
	batch        INTEGER NOT NULL,
	status       TEXT NOT NULL,
	error        TEXT NOT NULL DEFAULT '',
	completed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_run_jobs_run_id ON run_jobs(run_id);
`

type Store struct {
	db *sql.DB
}

type RunRecord struct {
	ID         string
	Root       string
	DryRun     bool
	Discovered int
	Submitted  int
	Failed     int
	Batches    int
	StartedAt  time.Time
	FinishedAt time.Time
}

type JobRecord struct {
	RunID       string
	Path        string
	Batch       int
	Status      string
	Error       string
	CompletedAt time.Time
}

// Job outcome statuses stored in run_jobs.
const (
	StatusSubmitted  = "submitted"
	StatusWouldPrint = "would_print"
	StatusFailed     = "failed"
)

// Open opens (or creates) the archive database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Recorder returns a JobObserver that writes one run_jobs row per completed
// job under the given run. Write failures are swallowed; outcome recording
// must never interfere with printing.
func (s *Store) Recorder(runID string, dryRun bool) *Recorder {
	return &Recorder{store: s, runID: runID, dryRun: dryRun}
}

type Recorder struct {
	store  *Store
	runID  string
	dryRun bool
}

func (r *Recorder) JobCompleted(job core.PrintJob, batch int, err error) {
	status := StatusSubmitted
	if r.dryRun {
		status = StatusWouldPrint
	}
	errMsg := ""
	if err != nil {
		status = StatusFailed
		errMsg = err.Error()
	}

	_, _ = r.store.db.Exec(`
		INSERT INTO run_jobs (run_id, path, batch, status, error, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.runID, job.Path, batch, status, errMsg, time.Now())
}

// RecordRun stores the aggregate result of a finished run.
func (s *Store) RecordRun(result *core.RunResult) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, root, dry_run, discovered, submitted, failed, batches, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.RunID, result.Root, boolToInt(result.DryRun), result.Discovered,
		result.Submitted, result.Failed, result.Batches, result.StartedAt, result.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, root, dry_run, discovered, submitted, failed, batches, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var dryRun int
		if err := rows.Scan(&r.ID, &r.Root, &dryRun, &r.Discovered, &r.Submitted,
			&r.Failed, &r.Batches, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.DryRun = dryRun == 1
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunJobs returns the per-job outcomes of one run in completion order.
func (s *Store) RunJobs(runID string) ([]JobRecord, error) {
	rows, err := s.db.Query(`
		SELECT run_id, path, batch, status, error, completed_at
		FROM run_jobs
		WHERE run_id = ?
		ORDER BY completed_at ASC, rowid ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run jobs: %w", err)
	}
	defer rows.Close()

	var jobs []JobRecord
	for rows.Next() {
		var j JobRecord
		if err := rows.Scan(&j.RunID, &j.Path, &j.Batch, &j.Status, &j.Error, &j.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan run job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// Purge deletes runs (and their job rows) that finished more than
// retentionDays ago. Returns the number of runs removed.
func (s *Store) Purge(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin purge: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM run_jobs WHERE run_id IN (SELECT id FROM runs WHERE finished_at < ?)
	`, cutoff); err != nil {
		return 0, fmt.Errorf("purge run jobs: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM runs WHERE finished_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge runs: %w", err)
	}
	removed, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit purge: %w", err)
	}
	return removed, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
