// Package trigger runs the two daily phases: collect a choice, then book it.
package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harunnryd/gymslot/internal/adapter"
	"github.com/harunnryd/gymslot/internal/booking"
	"github.com/harunnryd/gymslot/internal/concurrency"
	"github.com/harunnryd/gymslot/internal/errors"
	"github.com/harunnryd/gymslot/internal/history"
	"github.com/harunnryd/gymslot/internal/logger"
	"github.com/harunnryd/gymslot/internal/slot"

	"github.com/oklog/ulid/v2"
)

const (
	PhaseCollect = "collect"
	PhaseExecute = "execute"

	// OutcomeStoreError marks a run whose stored choice could not be read.
	OutcomeStoreError = "store_error"

	defaultFinishTimeout = 15 * time.Second
)

type Announcer interface {
	Announce(ctx context.Context) error
}

type ChoiceStore interface {
	Load(ctx context.Context) (slotID string, ok bool, err error)
	Clear(ctx context.Context) error
}

type Attempter interface {
	Attempt(ctx context.Context, timeRange string) booking.Outcome
	TargetDate() string
}

// Report describes one execution run.
type Report struct {
	RunID      string
	SlotID     string
	TimeRange  string
	TargetDate string
	// Selected is false when nothing usable was stored.
	Selected bool
	Outcome  booking.Outcome
	Message  string
	// Notified is true when the message reached the channel.
	Notified bool
	Cleared  bool
	// Failure is set when the choice store could not be read at all.
	Failure error
}

// Err is nil for a successful booking and for an intentional no-selection run.
func (r Report) Err() error {
	if r.Failure != nil {
		return r.Failure
	}
	if !r.Selected {
		return nil
	}
	return r.Outcome.Err()
}

type Coordinator struct {
	collector Announcer
	store     ChoiceStore
	executor  Attempter
	channel   adapter.Channel
	recorder  history.Recorder
	now       func() time.Time

	// finishTimeout bounds store, message and history calls once the run
	// context may already be cancelled.
	finishTimeout time.Duration

	// execute runs at most once at a time per process.
	mu sync.Mutex
}

type Option func(*Coordinator)

// WithRecorder stores every execution in history. A nil recorder disables it.
func WithRecorder(r history.Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithFinishTimeout bounds the store, message and history calls of one run.
func WithFinishTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.finishTimeout = d
		}
	}
}

func New(collector Announcer, store ChoiceStore, executor Attempter, channel adapter.Channel, opts ...Option) *Coordinator {
	c := &Coordinator{
		collector: collector,
		store:     store,
		executor:  executor,
		channel:   channel,
		now:       time.Now,

		finishTimeout: defaultFinishTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newRun(ctx context.Context, phase string) (context.Context, string) {
	id := ulid.Make().String()
	return logger.WithPhase(logger.WithRunID(ctx, id), phase), id
}

// Collect opens the selection window.
func (c *Coordinator) Collect(ctx context.Context) error {
	ctx, _ = newRun(ctx, PhaseCollect)
	log := logger.From(ctx)

	err := concurrency.Protect("announce", func() error {
		return c.collector.Announce(ctx)
	})
	if err != nil {
		log.Error("Collection failed", "error", err)
		return err
	}
	log.Info("Collection window opened")
	return nil
}

// Execute books the stored choice, reports the result and clears the store.
// It sends exactly one message and never panics.
func (c *Coordinator) Execute(ctx context.Context) (rep Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, rep.RunID = newRun(ctx, PhaseExecute)
	log := logger.From(ctx)

	defer func() {
		clearCtx, cancel := c.detached(ctx)
		defer cancel()
		if err := c.store.Clear(clearCtx); err != nil {
			log.Error("Failed to clear choice", "error", err)
			return
		}
		rep.Cleared = true
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Error("Execution panicked", "panic", r)
			// Message is only set right before sending, so an empty one means nothing went out yet.
			if rep.Message == "" {
				rep.Message = fmt.Sprintf("❌ Booking run %s stopped unexpectedly, no booking was confirmed.", rep.RunID)
				rep.Notified = c.notify(ctx, rep.Message)
				c.record(ctx, rep, "panic")
			}
		}
	}()

	rep.TargetDate = c.executor.TargetDate()

	entry, ok, err := c.selection(ctx)
	if err != nil {
		rep.Failure = err
		rep.Message = storeErrorMessage(rep.TargetDate)
		rep.Notified = c.notify(ctx, rep.Message)
		c.record(ctx, rep, OutcomeStoreError)
		return rep
	}
	if !ok {
		rep.Message = noSelectionMessage(rep.TargetDate)
		rep.Notified = c.notify(ctx, rep.Message)
		c.record(ctx, rep, history.OutcomeNoSelection)
		return rep
	}

	rep.Selected = true
	rep.SlotID = entry.ID
	rep.TimeRange = entry.TimeRange

	rep.Outcome = c.executor.Attempt(ctx, entry.TimeRange)
	rep.Message = rep.Outcome.Message()
	rep.Notified = c.notify(ctx, rep.Message)
	c.record(ctx, rep, string(rep.Outcome.Kind))

	log.Info("Execution finished",
		"slot", entry.ID,
		"time_range", entry.TimeRange,
		"outcome", rep.Outcome.Kind,
		"notified", rep.Notified,
	)
	return rep
}

// detached keeps ctx values (run id, phase) but not its cancellation, so a
// shutdown mid-run still lets the run report and clear.
func (c *Coordinator) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.finishTimeout)
}

// selection loads the stored slot. A missing, corrupt or unknown choice
// means nothing was selected. err is set only when the store itself
// could not be read, for example because its lock stayed held.
func (c *Coordinator) selection(ctx context.Context) (slot.Entry, bool, error) {
	log := logger.From(ctx)

	loadCtx, cancel := c.detached(ctx)
	defer cancel()

	id, ok, err := c.store.Load(loadCtx)
	if err != nil {
		if errors.IsCategory(err, errors.ErrInvalidInput) {
			log.Warn("Stored choice corrupt, treating as no selection", "error", err)
			return slot.Entry{}, false, nil
		}
		log.Error("Choice store unavailable", "error", err, "category", errors.Category(err))
		return slot.Entry{}, false, fmt.Errorf("load choice: %w", err)
	}
	if !ok {
		log.Info("No choice stored")
		return slot.Entry{}, false, nil
	}

	entry, err := slot.Resolve(id)
	if err != nil {
		log.Warn("Stored choice not in catalog, treating as no selection", "slot", id, "error", err)
		return slot.Entry{}, false, nil
	}
	return entry, true, nil
}

func (c *Coordinator) notify(ctx context.Context, text string) bool {
	if c.channel == nil {
		logger.From(ctx).Warn("No channel configured, message dropped", "text", text)
		return false
	}
	sendCtx, cancel := c.detached(ctx)
	defer cancel()
	err := concurrency.Protect("notify", func() error {
		_, err := c.channel.SendText(sendCtx, text)
		return err
	})
	if err != nil {
		logger.From(ctx).Error("Failed to send outcome message", "adapter", c.channel.Name(), "error", err)
		return false
	}
	return true
}

func (c *Coordinator) record(ctx context.Context, rep Report, outcome string) {
	if c.recorder == nil {
		return
	}
	a := history.Attempt{
		RunID:      rep.RunID,
		SlotID:     rep.SlotID,
		TimeRange:  rep.TimeRange,
		TargetDate: rep.TargetDate,
		Outcome:    outcome,
		Reason:     string(rep.Outcome.Reason),
		StatusCode: rep.Outcome.StatusCode,
		Message:    rep.Message,
		CreatedAt:  c.now(),
	}
	recCtx, cancel := c.detached(ctx)
	defer cancel()
	if err := c.recorder.Record(recCtx, a); err != nil {
		logger.From(ctx).Warn("Failed to record attempt", "error", err)
	}
}

func storeErrorMessage(date string) string {
	return fmt.Sprintf("⚠️ The stored choice for %s could not be read, so no booking was made.", date)
}

func noSelectionMessage(date string) string {
	return fmt.Sprintf("🤷 No slot was selected for %s, so no booking was made.", date)
}
