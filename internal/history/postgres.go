package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchemaSQL = `
CREATE TABLE IF NOT EXISTS gymslot_attempts (
	run_id TEXT PRIMARY KEY,
	slot_id TEXT NOT NULL DEFAULT '',
	time_range TEXT NOT NULL DEFAULT '',
	target_date TEXT NOT NULL DEFAULT '',
	outcome TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	status_code INTEGER NOT NULL DEFAULT 0,
	message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_gymslot_attempts_created_at ON gymslot_attempts(created_at);
`

type PostgresRecorder struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresRecorder, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing history.dsn: %w", err)
	}
	cfg.MaxConns = 2
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrating history schema: %w", err)
	}

	return &PostgresRecorder{pool: pool}, nil
}

func (r *PostgresRecorder) Record(ctx context.Context, a Attempt) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO gymslot_attempts (run_id, slot_id, time_range, target_date, outcome, reason, status_code, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.RunID, a.SlotID, a.TimeRange, a.TargetDate, a.Outcome, a.Reason, a.StatusCode, a.Message, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting attempt %s: %w", a.RunID, err)
	}
	return nil
}

func (r *PostgresRecorder) Recent(ctx context.Context, limit int) ([]Attempt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT run_id, slot_id, time_range, target_date, outcome, reason, status_code, message, created_at
		FROM gymslot_attempts
		ORDER BY created_at DESC, run_id DESC
		LIMIT $1`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.RunID, &a.SlotID, &a.TimeRange, &a.TargetDate, &a.Outcome, &a.Reason, &a.StatusCode, &a.Message, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRecorder) Close() error {
	r.pool.Close()
	return nil
}
