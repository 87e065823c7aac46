// Package audit persists a trail of sanitization runs so rejected output
// and diagnostic trends can be inspected after the fact.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"codetutor/internal/sanitize"
)

// Store manages the sanitization audit database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates or opens the audit store at the given path.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sanitize_runs (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		subject TEXT NOT NULL,
		lesson_title TEXT NOT NULL,
		phase TEXT NOT NULL,
		accepted INTEGER NOT NULL,
		input_text TEXT NOT NULL,
		output_text TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON sanitize_runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_accepted ON sanitize_runs(accepted);

	CREATE TABLE IF NOT EXISTS run_diagnostics (
		run_id TEXT NOT NULL,
		severity TEXT NOT NULL,
		code TEXT NOT NULL,
		line INTEGER NOT NULL,
		message TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES sanitize_runs(id)
	);
	CREATE INDEX IF NOT EXISTS idx_diag_run ON run_diagnostics(run_id);
	CREATE INDEX IF NOT EXISTS idx_diag_code ON run_diagnostics(code);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Run is one recorded sanitization attempt. Phase distinguishes the first
// generation from the strict retry and the deterministic fallback.
type Run struct {
	ID          string
	CreatedAt   time.Time
	Subject     string
	LessonTitle string
	Phase       string
	Accepted    bool
	Input       string
	Output      string
	Diagnostics []sanitize.Diagnostic
}

// Phases recorded per generation attempt.
const (
	PhaseInitial  = "initial"
	PhaseStrict   = "strict_retry"
	PhaseFallback = "fallback"
)

// RecordRun persists a run and its diagnostics in one transaction. A zero
// ID or CreatedAt is filled in.
func (s *Store) RecordRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sanitize_runs (id, created_at, subject, lesson_title, phase, accepted, input_text, output_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.Subject, run.LessonTitle, run.Phase,
		boolToInt(run.Accepted), run.Input, run.Output,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, d := range run.Diagnostics {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_diagnostics (run_id, severity, code, line, message)
			VALUES (?, ?, ?, ?, ?)`,
			run.ID, d.Severity.String(), d.Code, d.Line, d.Message,
		)
		if err != nil {
			return "", fmt.Errorf("insert diagnostic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return run.ID, nil
}

// RunSummary is a compact view of a recorded run for listings.
type RunSummary struct {
	ID          string
	CreatedAt   time.Time
	Subject     string
	LessonTitle string
	Phase       string
	Accepted    bool
	Diagnostics int
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, r.subject, r.lesson_title, r.phase, r.accepted,
		       (SELECT COUNT(*) FROM run_diagnostics d WHERE d.run_id = r.id)
		FROM sanitize_runs r
		ORDER BY r.created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var rs RunSummary
		var accepted int
		if err := rows.Scan(&rs.ID, &rs.CreatedAt, &rs.Subject, &rs.LessonTitle,
			&rs.Phase, &accepted, &rs.Diagnostics); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rs.Accepted = accepted != 0
		out = append(out, rs)
	}
	return out, rows.Err()
}

// Diagnostics returns the stored diagnostics for one run.
func (s *Store) Diagnostics(ctx context.Context, runID string) ([]sanitize.Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT severity, code, line, message FROM run_diagnostics
		WHERE run_id = ?
		ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	var out []sanitize.Diagnostic
	for rows.Next() {
		var d sanitize.Diagnostic
		var sev string
		if err := rows.Scan(&sev, &d.Code, &d.Line, &d.Message); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		d.Severity = severityFromString(sev)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Stats summarizes the audit trail.
type Stats struct {
	TotalRuns int
	Accepted  int
	Rejected  int
	Fallbacks int
}

// Stats returns aggregate counts over all recorded runs.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(accepted), 0),
		       COALESCE(SUM(CASE WHEN phase = ? THEN 1 ELSE 0 END), 0)
		FROM sanitize_runs`, PhaseFallback).
		Scan(&st.TotalRuns, &st.Accepted, &st.Fallbacks)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	st.Rejected = st.TotalRuns - st.Accepted
	return st, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func severityFromString(s string) sanitize.Severity {
	switch s {
	case "rejected":
		return sanitize.SeverityRejected
	case "warning":
		return sanitize.SeverityWarning
	default:
		return sanitize.SeverityInfo
	}
}
