package components

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/harunnryd/gymslot/internal/daemon"
	"github.com/harunnryd/gymslot/internal/history"
)

// HistoryComponent reports on the attempt log. The recorder is closed by its
// owner, not here. A nil recorder means history is disabled.
type HistoryComponent struct {
	recorder    history.Recorder
	initialized bool
	mu          sync.RWMutex
}

func NewHistoryComponent(recorder history.Recorder) *HistoryComponent {
	return &HistoryComponent{recorder: recorder}
}

func (h *HistoryComponent) Name() string {
	return "History"
}

func (h *HistoryComponent) Dependencies() []string {
	return []string{}
}

func (h *HistoryComponent) Init(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.recorder == nil {
		slog.Info("History disabled", "component", h.Name())
	} else if _, err := h.recorder.Recent(ctx, 1); err != nil {
		return fmt.Errorf("history not readable: %w", err)
	}

	h.initialized = true
	return nil
}

func (h *HistoryComponent) Start(ctx context.Context) error {
	return nil
}

func (h *HistoryComponent) Stop(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.initialized = false
	return nil
}

func (h *HistoryComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.initialized {
		return &daemon.ComponentHealth{Name: h.Name(), Healthy: false, Error: fmt.Errorf("not initialized")}, nil
	}
	if h.recorder == nil {
		return &daemon.ComponentHealth{Name: h.Name(), Healthy: true, Details: map[string]string{"enabled": "false"}}, nil
	}

	recent, err := h.recorder.Recent(ctx, 1)
	if err != nil {
		return &daemon.ComponentHealth{Name: h.Name(), Healthy: false, Error: err}, nil
	}
	details := map[string]string{"enabled": "true"}
	if len(recent) > 0 {
		details["last_outcome"] = recent[0].Outcome
		details["last_target_date"] = recent[0].TargetDate
	}
	return &daemon.ComponentHealth{Name: h.Name(), Healthy: true, Details: details}, nil
}
