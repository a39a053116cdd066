package components

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/gymslot/internal/choice"
	"github.com/harunnryd/gymslot/internal/daemon"
)

// StateComponent owns the choice file shared by both triggers.
type StateComponent struct {
	choices     *choice.Store
	initialized bool
	mu          sync.RWMutex
	startTime   time.Time
}

func NewStateComponent(choices *choice.Store) *StateComponent {
	return &StateComponent{choices: choices}
}

func (s *StateComponent) Name() string {
	return "State"
}

func (s *StateComponent) Dependencies() []string {
	return []string{}
}

func (s *StateComponent) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("State init cancelled: %w", ctx.Err())
	default:
	}

	if s.choices == nil {
		return fmt.Errorf("choice store not configured")
	}

	rec, ok, err := s.choices.Record(ctx)
	switch {
	case err != nil:
		// Left for the execute trigger, which treats it as no selection and clears it.
		slog.Warn("Choice file unreadable", "component", s.Name(), "path", s.choices.Path(), "error", err)
	case ok:
		slog.Info("Pending choice found", "component", s.Name(), "slot_id", rec.SlotID, "chosen_at", rec.ChosenAt.Format(time.RFC3339))
	default:
		slog.Info("No pending choice", "component", s.Name())
	}

	s.initialized = true
	s.startTime = time.Now()
	slog.Info("State initialized", "component", s.Name(), "path", s.choices.Path())
	return nil
}

func (s *StateComponent) Start(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return fmt.Errorf("State not initialized")
	}
	return nil
}

func (s *StateComponent) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = false
	return nil
}

func (s *StateComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return &daemon.ComponentHealth{Name: s.Name(), Healthy: false, Error: fmt.Errorf("not initialized")}, nil
	}

	details := map[string]string{"pending": "none"}
	rec, ok, err := s.choices.Record(ctx)
	if err != nil {
		return &daemon.ComponentHealth{Name: s.Name(), Healthy: false, Error: err}, nil
	}
	if ok {
		details["pending"] = rec.SlotID
	}
	return &daemon.ComponentHealth{Name: s.Name(), Healthy: true, Details: details}, nil
}

func (s *StateComponent) Choices() *choice.Store {
	return s.choices
}
