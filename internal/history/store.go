// Package history records every job attempt in a SQLite database so operators
// can see what ran, where it stopped, and why it failed.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// State values stored in the jobs table. They mirror the supervisor's
// terminal states plus running and interrupted.
const (
	StateRunning     = "running"
	StateCompleted   = "completed"
	StateFailed      = "failed"
	StateCancelled   = "cancelled"
	StateInterrupted = "interrupted"
)

// ErrNotFound is returned when a job id has no row.
var ErrNotFound = errors.New("job not found")

// Record is one job attempt.
type Record struct {
	ID            string
	InputPath     string
	OverlayPath   string
	OutputDir     string
	Resolution    string
	StartFrame    int
	LastFrame     int
	RequiredBytes uint64
	State         string
	FailureKind   string
	Message       string
	SnapshotJSON  string
	StartedAt     time.Time
	FinishedAt    *time.Time
}

// Outcome is the terminal information written by Finish.
type Outcome struct {
	State        string
	LastFrame    int
	FailureKind  string
	Message      string
	SnapshotJSON string
}

// Store manages job history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin inserts a running record.
func (s *Store) Begin(ctx context.Context, rec Record) error {
	started := rec.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (
            id, input_path, overlay_path, output_dir, resolution,
            start_frame, last_frame, required_bytes, state, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.InputPath,
		rec.OverlayPath,
		rec.OutputDir,
		rec.Resolution,
		rec.StartFrame,
		rec.StartFrame,
		int64(rec.RequiredBytes),
		StateRunning,
		formatTime(started),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Finish records the terminal state of a job.
func (s *Store) Finish(ctx context.Context, id string, out Outcome) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET state = ?, last_frame = ?, failure_kind = ?, message = ?, snapshot_json = ?, finished_at = ?
        WHERE id = ?`,
		out.State,
		out.LastFrame,
		nullableString(out.FailureKind),
		nullableString(out.Message),
		nullableString(out.SnapshotJSON),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish job %s: %w", id, ErrNotFound)
	}
	return nil
}

// Get fetches one record.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// MarkInterrupted flags rows left running by a process that exited without
// recording an outcome.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET state = ?, finished_at = ? WHERE state = ?`,
		StateInterrupted, formatTime(time.Now()), StateRunning)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted: %w", err)
	}
	return res.RowsAffected()
}

const selectColumns = `SELECT id, input_path, overlay_path, output_dir, resolution,
    start_frame, last_frame, required_bytes, state, failure_kind, message,
    snapshot_json, started_at, finished_at FROM jobs`

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		rec         Record
		required    int64
		failure     sql.NullString
		message     sql.NullString
		snapshot    sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&rec.ID, &rec.InputPath, &rec.OverlayPath, &rec.OutputDir, &rec.Resolution,
		&rec.StartFrame, &rec.LastFrame, &required, &rec.State, &failure, &message,
		&snapshot, &startedRaw, &finishedRaw,
	); err != nil {
		return nil, err
	}
	rec.RequiredBytes = uint64(required)
	rec.FailureKind = failure.String
	rec.Message = message.String
	rec.SnapshotJSON = snapshot.String
	if started, err := parseTimeString(startedRaw); err == nil {
		rec.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			rec.FinishedAt = &finished
		}
	}
	return &rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
