package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/harunnryd/gymslot/internal/config"
	"github.com/harunnryd/gymslot/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultSchedule = config.ScheduleConfig{
	Collect: config.DefaultScheduleCollect,
	Execute: config.DefaultScheduleExecute,
}

func TestValidateOrder(t *testing.T) {
	from := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		collect string
		execute string
		wantErr bool
	}{
		{"noon then evening", "0 12 * * *", "0 22 * * *", false},
		{"one minute later", "0 12 * * *", "1 12 * * *", false},
		{"same time", "0 12 * * *", "0 12 * * *", true},
		{"execute before collect", "0 12 * * *", "0 8 * * *", true},
		{"weekdays only both", "0 12 * * 1-5", "0 22 * * 1-5", false},
		{"execute missing on weekends", "0 12 * * *", "0 22 * * 1-5", true},
		{"invalid collect", "noon", "0 22 * * *", true},
		{"invalid execute", "0 12 * * *", "61 22 * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOrder(tt.collect, tt.execute, time.UTC, from)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrInvalidInput))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateOrder_UsesLocation(t *testing.T) {
	// 12:00 and 22:00 local are distinct in any zone.
	tokyo := time.FixedZone("JST", 9*3600)
	assert.NoError(t, ValidateOrder("0 12 * * *", "0 22 * * *", tokyo, time.Now()))
}

func TestNext(t *testing.T) {
	from := time.Date(2026, 10, 15, 13, 0, 0, 0, time.UTC)

	next, err := Next("0 12 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC), next)

	_, err = Next("bogus", from)
	assert.Error(t, err)
}

func newTestScheduler(t *testing.T, jobs ...Job) (*Scheduler, *Store) {
	t.Helper()
	runs, err := NewStore(filepath.Join(t.TempDir(), "schedule.json"))
	require.NoError(t, err)
	s, err := NewScheduler(runs, defaultSchedule, time.UTC, "1s", jobs...)
	require.NoError(t, err)
	return s, runs
}

func TestScheduler_RejectsBadJobs(t *testing.T) {
	_, err := NewScheduler(nil, defaultSchedule, time.UTC, "", Job{Name: "x", Spec: "every day"})
	assert.Error(t, err)

	_, err = NewScheduler(nil, defaultSchedule, time.UTC, "",
		Job{Name: "x", Spec: "@daily"},
		Job{Name: "x", Spec: "@hourly"},
	)
	assert.Error(t, err)

	_, err = NewScheduler(nil, config.ScheduleConfig{Collect: "0 22 * * *", Execute: "0 12 * * *"}, time.UTC, "")
	assert.Error(t, err)
}

func TestScheduler_ComponentLifecycle(t *testing.T) {
	s, _ := newTestScheduler(t, Job{Name: JobCollect, Spec: "0 12 * * *", Run: func(ctx context.Context) error { return nil }})
	ctx := context.Background()

	assert.Error(t, s.Health(ctx), "not initialized")
	assert.Error(t, s.Start(ctx), "start before init")

	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	assert.NoError(t, s.Health(ctx))

	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())
	assert.Error(t, s.Health(ctx))
	assert.NoError(t, s.Stop(ctx), "second stop is a no-op")
}

func TestScheduler_NextRuns(t *testing.T) {
	s, _ := newTestScheduler(t,
		Job{Name: JobCollect, Spec: "0 12 * * *"},
		Job{Name: JobExecute, Spec: "0 22 * * *"},
	)
	s.now = func() time.Time { return time.Date(2026, 10, 15, 13, 0, 0, 0, time.UTC) }

	runs := s.NextRuns()
	require.Len(t, runs, 2)
	assert.Equal(t, JobCollect, runs[0].Name)
	assert.Equal(t, time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC), runs[0].Next)
	assert.Equal(t, JobExecute, runs[1].Name)
	assert.Equal(t, time.Date(2026, 10, 15, 22, 0, 0, 0, time.UTC), runs[1].Next)
}

func TestScheduler_RunJobRecordsState(t *testing.T) {
	var calls int
	ok := Job{Name: JobCollect, Spec: "0 12 * * *", Run: func(ctx context.Context) error {
		calls++
		require.NotNil(t, ctx)
		return nil
	}}
	bad := Job{Name: JobExecute, Spec: "0 22 * * *", Run: func(ctx context.Context) error {
		return fmt.Errorf("booking site down")
	}}
	s, runs := newTestScheduler(t, ok, bad)
	require.NoError(t, s.Init(context.Background()))

	s.runJob(ok)
	s.runJob(bad)

	assert.Equal(t, 1, calls)

	state, found := runs.Get(JobCollect)
	require.True(t, found)
	assert.Equal(t, StatusDone, state.LastStatus)
	assert.NotEmpty(t, state.LastRunID)

	state, found = runs.Get(JobExecute)
	require.True(t, found)
	assert.Equal(t, StatusFailed, state.LastStatus)
	assert.Equal(t, "booking site down", state.LastError)

	assert.Len(t, s.Runs(), 2)
}
