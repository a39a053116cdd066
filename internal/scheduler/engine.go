package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/gymslot/internal/config"
	"github.com/harunnryd/gymslot/internal/errors"

	"github.com/oklog/ulid/v2"
	"github.com/robfig/cron/v3"
)

const (
	JobCollect = "collect"
	JobExecute = "execute"
)

// Job is a named callback fired on a cron spec.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Upcoming is the next fire time of a job.
type Upcoming struct {
	Name string
	Spec string
	Next time.Time
}

type Scheduler struct {
	runs            *Store
	loc             *time.Location
	jobs            []Job
	schedules       map[string]cron.Schedule
	shutdownTimeout time.Duration
	now             func() time.Time

	mu      sync.RWMutex
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

func NewScheduler(runs *Store, cfg config.ScheduleConfig, loc *time.Location, shutdownTimeout string, jobs ...Job) (*Scheduler, error) {
	timeout, err := config.DurationOrDefault(shutdownTimeout, config.DefaultDaemonShutdownTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse scheduler shutdown timeout: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}

	if err := ValidateOrder(cfg.Collect, cfg.Execute, loc, time.Now()); err != nil {
		return nil, err
	}

	s := &Scheduler{
		runs:            runs,
		loc:             loc,
		schedules:       make(map[string]cron.Schedule, len(jobs)),
		shutdownTimeout: timeout,
		now:             time.Now,
	}
	for _, job := range jobs {
		sched, err := cron.ParseStandard(job.Spec)
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("job %s: invalid cron schedule %q: %v", job.Name, job.Spec, err))
		}
		if _, dup := s.schedules[job.Name]; dup {
			return nil, errors.InvalidInput(fmt.Sprintf("duplicate job %s", job.Name))
		}
		s.schedules[job.Name] = sched
		s.jobs = append(s.jobs, job)
	}
	return s, nil
}

func (s *Scheduler) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx, s.cancel = context.WithCancel(ctx)

	log := cronLogger{}
	s.cron = cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)

	for _, job := range s.jobs {
		s.cron.Schedule(s.schedules[job.Name], cron.FuncJob(func() { s.runJob(job) }))
	}

	slog.Info("Scheduler initialized", "jobs", len(s.jobs), "timezone", s.loc.String())
	return nil
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	if s.cron == nil {
		s.mu.Unlock()
		return errors.Internal("scheduler not initialized")
	}
	s.running = true
	s.mu.Unlock()

	s.reportMissedRuns()
	s.cron.Start()

	for _, u := range s.NextRuns() {
		slog.Info("Job scheduled", "job", u.Name, "spec", u.Spec, "next", u.Next.Format(time.RFC3339))
	}
	slog.Info("Scheduler started")
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	// Jobs already running keep their context until they finish or the wait times out.
	done := s.cron.Stop()
	defer s.cancel()

	select {
	case <-done.Done():
		slog.Info("Scheduler stopped gracefully")
		return nil
	case <-time.After(s.shutdownTimeout):
		slog.Warn("Scheduler shutdown timeout, force stopping")
		return errors.Internal("shutdown timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) Health(ctx context.Context) error {
	if s.ctx == nil {
		return errors.Internal("scheduler not initialized")
	}
	if !s.IsRunning() {
		return errors.Internal("scheduler not running")
	}
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// NextRuns lists the next fire time of every job, in registration order.
func (s *Scheduler) NextRuns() []Upcoming {
	now := s.now().In(s.loc)
	out := make([]Upcoming, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, Upcoming{
			Name: job.Name,
			Spec: job.Spec,
			Next: s.schedules[job.Name].Next(now),
		})
	}
	return out
}

// Runs returns the persisted state of every job.
func (s *Scheduler) Runs() []JobState {
	if s.runs == nil {
		return nil
	}
	return s.runs.All()
}

func (s *Scheduler) runJob(job Job) {
	runID := ulid.Make().String()
	started := s.now()

	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()

	if s.runs != nil {
		if err := s.runs.Begin(job.Name, job.Spec, runID, started); err != nil {
			slog.Warn("Failed to record job start", "job", job.Name, "error", err)
		}
	}

	slog.Info("Job fired", "job", job.Name, "run_id", runID)
	err := job.Run(ctx)
	if err != nil {
		slog.Error("Job failed", "job", job.Name, "run_id", runID, "error", err)
	}

	if s.runs != nil {
		if ferr := s.runs.Finish(job.Name, runID, s.now(), err); ferr != nil {
			slog.Warn("Failed to record job finish", "job", job.Name, "error", ferr)
		}
	}
}

func (s *Scheduler) reportMissedRuns() {
	if s.runs == nil {
		return
	}
	now := s.now().In(s.loc)
	for _, job := range s.jobs {
		state, ok := s.runs.Get(job.Name)
		if ok && state.LastStatus == StatusRunning {
			slog.Warn("Previous run was interrupted", "job", job.Name, "run_id", state.LastRunID, "started", state.LastStarted)
		}
		if at, missed := s.runs.Missed(job.Name, s.schedules[job.Name], now); missed {
			slog.Warn("Missed scheduled run while offline", "job", job.Name, "due", at.Format(time.RFC3339))
		}
	}
}

// ValidateOrder checks that on each of the next seven days the execution
// spec first fires strictly after the collection spec.
func ValidateOrder(collectSpec, executeSpec string, loc *time.Location, from time.Time) error {
	collect, err := cron.ParseStandard(collectSpec)
	if err != nil {
		return errors.InvalidInput(fmt.Sprintf("schedule.collect %q: %v", collectSpec, err))
	}
	execute, err := cron.ParseStandard(executeSpec)
	if err != nil {
		return errors.InvalidInput(fmt.Sprintf("schedule.execute %q: %v", executeSpec, err))
	}
	if loc == nil {
		loc = time.Local
	}

	local := from.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	for i := 0; i < 7; i++ {
		start := day.AddDate(0, 0, i)
		end := start.AddDate(0, 0, 1)
		before := start.Add(-time.Nanosecond)

		c := collect.Next(before)
		if c.IsZero() || !c.Before(end) {
			continue
		}
		e := execute.Next(before)
		if e.IsZero() || !e.Before(end) {
			return errors.InvalidInput(fmt.Sprintf("schedule.execute never fires on %s after collection at %s", start.Format(time.DateOnly), c.Format("15:04")))
		}
		if !e.After(c) {
			return errors.InvalidInput(fmt.Sprintf("schedule.execute (%s) must fire after schedule.collect (%s) on %s",
				e.Format("15:04"), c.Format("15:04"), start.Format(time.DateOnly)))
		}
	}
	return nil
}

// Next returns the first fire time of spec after from.
func Next(spec string, from time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, errors.InvalidInput(fmt.Sprintf("invalid cron schedule %q: %v", spec, err))
	}
	return sched.Next(from), nil
}

// cronLogger sends cron's internal logging to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
