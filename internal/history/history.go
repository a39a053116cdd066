// Package history keeps a log of execution runs and their outcomes.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/harunnryd/gymslot/internal/config"
)

// OutcomeNoSelection marks a run where nothing was chosen.
const OutcomeNoSelection = "no_selection"

const DefaultRecentLimit = 20

// Attempt is one execution trigger firing.
type Attempt struct {
	RunID      string
	SlotID     string
	TimeRange  string
	TargetDate string
	Outcome    string
	Reason     string
	StatusCode int
	Message    string
	CreatedAt  time.Time
}

type Recorder interface {
	Record(ctx context.Context, a Attempt) error
	// Recent returns the newest attempts first.
	Recent(ctx context.Context, limit int) ([]Attempt, error)
	Close() error
}

// Open returns the recorder selected by cfg.Driver, or nil for "none".
func Open(ctx context.Context, cfg config.HistoryConfig) (Recorder, error) {
	switch cfg.Driver {
	case config.HistorySQLite, "":
		r, err := OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return r, nil
	case config.HistoryPostgres:
		r, err := OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return r, nil
	case config.HistoryNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown history.driver %q", cfg.Driver)
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	return limit
}
