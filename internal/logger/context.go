package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const RunIDKey contextKey = "run_id"
const PhaseKey contextKey = "phase"

func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}

func GetRunID(ctx context.Context) string {
	if id, ok := ctx.Value(RunIDKey).(string); ok {
		return id
	}
	return ""
}

func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, PhaseKey, phase)
}

func GetPhase(ctx context.Context) string {
	if p, ok := ctx.Value(PhaseKey).(string); ok {
		return p
	}
	return ""
}

// From returns the default logger annotated with the run id and phase found in ctx.
func From(ctx context.Context) *slog.Logger {
	l := slog.Default()
	if id := GetRunID(ctx); id != "" {
		l = l.With("run_id", id)
	}
	if p := GetPhase(ctx); p != "" {
		l = l.With("phase", p)
	}
	return l
}
