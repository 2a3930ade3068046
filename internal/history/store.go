package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"vidstudio/internal/config"
	"vidstudio/internal/services"
)

// Store manages the journal database.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const schema = `
CREATE TABLE IF NOT EXISTS operations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    status TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    output_path TEXT NOT NULL DEFAULT '',
    progress_stage TEXT NOT NULL DEFAULT '',
    progress_percent REAL NOT NULL DEFAULT 0,
    error_message TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_operations_session ON operations(session_id);
CREATE INDEX IF NOT EXISTS idx_operations_status ON operations(status);
`

// Open initializes or connects to the journal database under the log
// directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
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

	store := &Store{db: db, path: dbPath}
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Begin records a new running operation and returns its journal id.
func (s *Store) Begin(ctx context.Context, sessionID string, kind Kind, detail string) (int64, error) {
	now := timestamp(time.Now())
	res, err := s.execWithRetry(ctx,
		`INSERT INTO operations (session_id, kind, status, detail, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, string(kind), string(StatusRunning), detail, now, now)
	if err != nil {
		return 0, fmt.Errorf("record operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record operation: %w", err)
	}
	return id, nil
}

// UpdateProgress stores the latest progress stage and percentage for a
// running operation.
func (s *Store) UpdateProgress(ctx context.Context, id int64, stage string, percent float64) error {
	_, err := s.execWithRetry(ctx,
		`UPDATE operations SET progress_stage = ?, progress_percent = ?, updated_at = ? WHERE id = ?`,
		stage, percent, timestamp(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// Complete marks the operation finished and records its output path, if any.
func (s *Store) Complete(ctx context.Context, id int64, outputPath string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE operations SET status = ?, output_path = ?, progress_percent = 100, updated_at = ? WHERE id = ?`,
		string(StatusCompleted), outputPath, timestamp(time.Now()), id)
	if err != nil {
		return fmt.Errorf("complete operation: %w", err)
	}
	return requireRow(res, id)
}

// Fail marks the operation failed with a short message. The stored kind of
// the underlying error is kept alongside the message for filtering.
func (s *Store) Fail(ctx context.Context, id int64, cause error) error {
	message := ""
	if cause != nil {
		message = services.Kind(cause) + ": " + cause.Error()
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE operations SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(StatusFailed), message, timestamp(time.Now()), id)
	if err != nil {
		return fmt.Errorf("fail operation: %w", err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "history", "update", fmt.Sprintf("operation %d not recorded", id), nil)
	}
	return nil
}

const selectColumns = `id, session_id, kind, status, detail, output_path,
    progress_stage, progress_percent, error_message, created_at, updated_at`

func scanOperation(rows *sql.Rows) (Operation, error) {
	var (
		op                   Operation
		kind, status         string
		createdAt, updatedAt string
	)
	if err := rows.Scan(&op.ID, &op.SessionID, &kind, &status, &op.Detail, &op.OutputPath,
		&op.ProgressStage, &op.ProgressPercent, &op.ErrorMessage, &createdAt, &updatedAt); err != nil {
		return Operation{}, err
	}
	op.Kind = Kind(kind)
	op.Status = Status(status)
	op.CreatedAt = parseTimestamp(createdAt)
	op.UpdatedAt = parseTimestamp(updatedAt)
	return op, nil
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Operation, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var ops []Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// List returns the most recent operations, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Operation, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.list(ctx, `SELECT `+selectColumns+` FROM operations ORDER BY id DESC LIMIT ?`, limit)
}

// ListSession returns all operations recorded for one session, oldest first.
func (s *Store) ListSession(ctx context.Context, sessionID string) ([]Operation, error) {
	return s.list(ctx, `SELECT `+selectColumns+` FROM operations WHERE session_id = ? ORDER BY id ASC`, sessionID)
}

// Stats aggregates journal entries by status.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM operations GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("journal stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		switch Status(status) {
		case StatusRunning:
			stats.Running = count
		case StatusCompleted:
			stats.Completed = count
		case StatusFailed:
			stats.Failed = count
		}
	}
	return stats, rows.Err()
}
