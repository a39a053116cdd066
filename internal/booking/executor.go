// Package booking performs the single booking request for tomorrow's slot.
package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/harunnryd/gymslot/internal/errors"
	"github.com/harunnryd/gymslot/internal/logger"
	"github.com/harunnryd/gymslot/internal/session"
)

// DateLayout renders 16-OCT-2026 once upper-cased.
const DateLayout = "02-Jan-2006"

// Booker sends one booking request and reports the HTTP status.
type Booker interface {
	Book(ctx context.Context, token, date, timeRange string) (int, error)
}

type Executor struct {
	creds  session.Source
	booker Booker
	loc    *time.Location
	now    func() time.Time
}

type Option func(*Executor)

func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(e *Executor) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func NewExecutor(creds session.Source, booker Booker, opts ...Option) *Executor {
	e := &Executor{
		creds:  creds,
		booker: booker,
		loc:    time.Local,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TargetDate formats the day after now (in loc) as DD-MON-YYYY with an upper-case month.
func TargetDate(now time.Time, loc *time.Location) string {
	local := now.In(loc)
	tomorrow := time.Date(local.Year(), local.Month(), local.Day()+1, 12, 0, 0, 0, loc)
	return strings.ToUpper(tomorrow.Format(DateLayout))
}

func (e *Executor) TargetDate() string {
	return TargetDate(e.now(), e.loc)
}

// Attempt books timeRange for tomorrow. It never retries and never panics on
// remote failures; every path is described by the returned Outcome.
func (e *Executor) Attempt(ctx context.Context, timeRange string) Outcome {
	log := logger.From(ctx)
	out := Outcome{Date: e.TargetDate(), TimeRange: timeRange}

	cred, err := e.creds.Credential(ctx)
	if err != nil {
		out.Kind = KindLoginFailed
		out.Cause = err
		log.Warn("Booking skipped, login failed", "date", out.Date, "time_range", timeRange, "error", err)
		return out
	}

	status, err := e.booker.Book(ctx, cred.Token, out.Date, timeRange)
	if err != nil {
		out.Kind = KindTransportError
		if !errors.IsCategory(err, errors.ErrTransport) {
			err = errors.MapTransport(err)
		}
		out.Cause = err
		log.Warn("Booking request failed", "date", out.Date, "time_range", timeRange, "error", err)
		return out
	}

	out.StatusCode = status
	out.Kind, out.Reason = classify(status)
	log.Log(ctx, levelFor(out.Kind), "Booking attempted",
		"date", out.Date,
		"time_range", timeRange,
		"status", status,
		"outcome", out.Kind,
		"reason", out.Reason,
	)
	return out
}

func levelFor(k Kind) slog.Level {
	if k == KindSuccess {
		return slog.LevelInfo
	}
	return slog.LevelWarn
}
