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

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS attempts (
		run_id      TEXT PRIMARY KEY,
		slot_id     TEXT NOT NULL DEFAULT '',
		time_range  TEXT NOT NULL DEFAULT '',
		target_date TEXT NOT NULL DEFAULT '',
		outcome     TEXT NOT NULL,
		reason      TEXT NOT NULL DEFAULT '',
		status_code INTEGER NOT NULL DEFAULT 0,
		message     TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attempts_created_at ON attempts(created_at)`,
}

type SQLiteRecorder struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the history database at path.
// ":memory:" gives a throwaway database.
func OpenSQLite(path string) (*SQLiteRecorder, error) {
	if path == "" {
		return nil, fmt.Errorf("history.dsn is required for sqlite")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	for i, stmt := range sqliteMigrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration %d: %w", i, err)
		}
	}

	return &SQLiteRecorder{db: db}, nil
}

func (r *SQLiteRecorder) Record(ctx context.Context, a Attempt) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attempts (run_id, slot_id, time_range, target_date, outcome, reason, status_code, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.RunID, a.SlotID, a.TimeRange, a.TargetDate, a.Outcome, a.Reason, a.StatusCode, a.Message,
		a.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting attempt %s: %w", a.RunID, err)
	}
	return nil
}

func (r *SQLiteRecorder) Recent(ctx context.Context, limit int) ([]Attempt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT run_id, slot_id, time_range, target_date, outcome, reason, status_code, message, created_at
		FROM attempts
		ORDER BY created_at DESC, run_id DESC
		LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		var created string
		if err := rows.Scan(&a.RunID, &a.SlotID, &a.TimeRange, &a.TargetDate, &a.Outcome, &a.Reason, &a.StatusCode, &a.Message, &created); err != nil {
			return nil, fmt.Errorf("scanning attempt: %w", err)
		}
		if a.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", created, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
