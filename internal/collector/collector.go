// Package collector offers the day's slots to the user and records the pick.
package collector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harunnryd/gymslot/internal/adapter"
	"github.com/harunnryd/gymslot/internal/errors"
	"github.com/harunnryd/gymslot/internal/slot"
)

const (
	PromptText  = "🏋️ Pick a gym slot for tomorrow:"
	SkipLabel   = "⏭ Skip today"
	SkippedText = "No booking today."
)

// ChoiceStore is the part of the choice store the collector writes to.
type ChoiceStore interface {
	Save(ctx context.Context, slotID string) error
	Clear(ctx context.Context) error
}

type Collector struct {
	store     ChoiceStore
	channel   adapter.Channel
	executeAt func() string
}

type Option func(*Collector)

// WithExecuteAt sets how the booking time is described in confirmations.
func WithExecuteAt(fn func() string) Option {
	return func(c *Collector) {
		if fn != nil {
			c.executeAt = fn
		}
	}
}

func New(store ChoiceStore, channel adapter.Channel, opts ...Option) *Collector {
	c := &Collector{
		store:     store,
		channel:   channel,
		executeAt: func() string { return "the scheduled time" },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Choices lists every catalog slot followed by the skip option.
func Choices() []adapter.Choice {
	entries := slot.All()
	out := make([]adapter.Choice, 0, len(entries)+1)
	for _, e := range entries {
		out = append(out, adapter.Choice{ID: e.ID, Label: e.Display()})
	}
	return append(out, adapter.Choice{ID: slot.SkipID, Label: SkipLabel})
}

// Announce sends the choice message. Responses arrive later through OnResponse.
func (c *Collector) Announce(ctx context.Context) error {
	if c.channel == nil {
		return errors.Internal("messaging channel not initialized")
	}

	id, err := c.channel.SendChoices(ctx, PromptText, Choices())
	if err != nil {
		return errors.Wrap(err, "failed to announce slots")
	}
	slog.Info("Slots announced", "adapter", c.channel.Name(), "message_id", id)
	return nil
}

// OnResponse handles one user pick. The latest pick replaces any earlier one.
func (c *Collector) OnResponse(ctx context.Context, resp adapter.Response) error {
	if c.store == nil {
		return errors.Internal("choice store not initialized")
	}

	if resp.SelectionID == slot.SkipID {
		if err := c.store.Clear(ctx); err != nil {
			return errors.Wrap(err, "failed to clear choice")
		}
		slog.Info("Booking skipped for today", "source", resp.Source, "user", resp.UserID)
		c.confirm(ctx, resp, SkippedText, "🚫 "+SkippedText)
		return nil
	}

	entry, err := slot.Resolve(resp.SelectionID)
	if err != nil {
		slog.Warn("Ignoring unknown selection", "selection", resp.SelectionID, "source", resp.Source)
		return nil
	}

	if err := c.store.Save(ctx, entry.ID); err != nil {
		return errors.Wrap(err, "failed to save choice")
	}
	slog.Info("Choice saved", "slot", entry.ID, "time_range", entry.TimeRange, "source", resp.Source)

	c.confirm(ctx, resp,
		fmt.Sprintf("Saved %s", entry.Label),
		fmt.Sprintf("✅ Selected %s. Booking runs at %s.", entry.Label, c.executeAt()),
	)
	return nil
}

// confirm acknowledges the tap and rewrites the original message. Failures
// here are logged; the choice is already stored.
func (c *Collector) confirm(ctx context.Context, resp adapter.Response, ack, edited string) {
	if c.channel == nil {
		return
	}
	if err := c.channel.Acknowledge(ctx, resp, ack); err != nil {
		slog.Warn("Failed to acknowledge selection", "adapter", c.channel.Name(), "error", err)
	}
	if resp.MessageID == "" {
		return
	}
	if err := c.channel.EditText(ctx, resp.MessageID, edited); err != nil {
		slog.Warn("Failed to edit choice message", "adapter", c.channel.Name(), "message_id", resp.MessageID, "error", err)
	}
}
