package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/harunnryd/gymslot/internal/config"
	"github.com/harunnryd/gymslot/internal/daemon"
	"github.com/harunnryd/gymslot/internal/scheduler"
	"github.com/harunnryd/gymslot/internal/store"
	"github.com/harunnryd/gymslot/internal/trigger"
)

// Triggers is the pair of actions fired by the two daily jobs.
type Triggers interface {
	Collect(ctx context.Context) error
	Execute(ctx context.Context) trigger.Report
}

type SchedulerComponent struct {
	sched    *scheduler.Scheduler
	cfg      *config.Config
	triggers Triggers
	stateDir string
	loc      *time.Location
}

func NewSchedulerComponent(cfg *config.Config, triggers Triggers, stateDir string, loc *time.Location) *SchedulerComponent {
	return &SchedulerComponent{
		cfg:      cfg,
		triggers: triggers,
		stateDir: stateDir,
		loc:      loc,
	}
}

func (s *SchedulerComponent) Name() string {
	return "Scheduler"
}

func (s *SchedulerComponent) Dependencies() []string {
	return []string{"State", "History", "Adapters"}
}

func (s *SchedulerComponent) Init(ctx context.Context) error {
	if s.triggers == nil {
		return fmt.Errorf("triggers not provided")
	}

	runs, err := scheduler.NewStore(store.RunLogPath(s.stateDir))
	if err != nil {
		return fmt.Errorf("failed to create run log: %w", err)
	}

	sched, err := scheduler.NewScheduler(runs, s.cfg.Schedule, s.loc, s.cfg.Daemon.ShutdownTimeout,
		scheduler.Job{
			Name: scheduler.JobCollect,
			Spec: s.cfg.Schedule.Collect,
			Run:  s.triggers.Collect,
		},
		scheduler.Job{
			Name: scheduler.JobExecute,
			Spec: s.cfg.Schedule.Execute,
			Run:  func(ctx context.Context) error {
				return s.triggers.Execute(ctx).Err()
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	s.sched = sched

	if err := s.sched.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	slog.Info("Scheduler initialized", "component", s.Name())
	return nil
}

func (s *SchedulerComponent) Start(ctx context.Context) error {
	if s.sched == nil {
		return fmt.Errorf("scheduler not initialized")
	}

	if err := s.sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	slog.Info("Scheduler started", "component", s.Name())
	return nil
}

func (s *SchedulerComponent) Stop(ctx context.Context) error {
	if s.sched == nil {
		slog.Info("Scheduler not initialized, skipping stop", "component", s.Name())
		return nil
	}

	if err := s.sched.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}

	slog.Info("Scheduler stopped", "component", s.Name())
	return nil
}

func (s *SchedulerComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	if s.sched == nil {
		return &daemon.ComponentHealth{
			Name:    s.Name(),
			Healthy: false,
			Error:   fmt.Errorf("not initialized"),
		}, nil
	}

	details := make(map[string]string)
	for _, u := range s.sched.NextRuns() {
		details["next_"+u.Name] = u.Next.Format(time.RFC3339)
	}
	for _, run := range s.sched.Runs() {
		if run.LastStatus != "" {
			details["last_"+run.Name] = string(run.LastStatus)
		}
	}

	if err := s.sched.Health(ctx); err != nil {
		return &daemon.ComponentHealth{
			Name:    s.Name(),
			Healthy: false,
			Error:   err,
			Details: details,
		}, nil
	}

	return &daemon.ComponentHealth{
		Name:    s.Name(),
		Healthy: true,
		Details: details,
	}, nil
}

func (s *SchedulerComponent) GetScheduler() *scheduler.Scheduler {
	return s.sched
}
