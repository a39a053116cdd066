package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/harunnryd/gymslot/internal/adapter"
	"github.com/harunnryd/gymslot/internal/booking"
	"github.com/harunnryd/gymslot/internal/choice"
	"github.com/harunnryd/gymslot/internal/collector"
	"github.com/harunnryd/gymslot/internal/config"
	"github.com/harunnryd/gymslot/internal/history"
	"github.com/harunnryd/gymslot/internal/scheduler"
	"github.com/harunnryd/gymslot/internal/session"
	"github.com/harunnryd/gymslot/internal/site"
	"github.com/harunnryd/gymslot/internal/store"
	"github.com/harunnryd/gymslot/internal/trigger"
)

type Options struct {
	Listen  bool
	Console io.Writer
}

// RuntimeComponents is the fully wired booking workflow shared by every command.
type RuntimeComponents struct {
	Ctx    context.Context
	Cancel context.CancelFunc

	Config   *config.Config
	StateDir string
	Location *time.Location

	Choices     *choice.Store
	History     history.Recorder
	Adapters    *adapter.RuntimeManager
	Site        *site.Client
	Session     *session.Cache
	Executor    *booking.Executor
	Collector   *collector.Collector
	Coordinator *trigger.Coordinator
}

func NewRuntimeComponents(ctx context.Context, cfg *config.Config, opts Options) (*RuntimeComponents, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	components := &RuntimeComponents{
		Ctx:    ctx,
		Cancel: cancel,
		Config: cfg,
	}

	if err := components.build(opts); err != nil {
		components.Stop()
		return nil, err
	}
	return components, nil
}

func (c *RuntimeComponents) build(opts Options) error {
	cfg := c.Config

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	c.Location = loc

	stateDir, err := store.ResolveStateDir(cfg.Store.StateDir)
	if err != nil {
		return fmt.Errorf("resolve state dir: %w", err)
	}
	c.StateDir = stateDir

	lockCfg, err := store.FileLockConfigFrom(cfg.Store)
	if err != nil {
		return err
	}
	choices, err := choice.NewStore(stateDir, choice.WithLockConfig(lockCfg))
	if err != nil {
		return fmt.Errorf("open choice store: %w", err)
	}
	c.Choices = choices

	rec, err := history.Open(c.Ctx, cfg.History)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	c.History = rec

	// The collector is created after the channel it answers through.
	handler := func(ctx context.Context, resp adapter.Response) error {
		if c.Collector == nil {
			return fmt.Errorf("collector not initialized")
		}
		return c.Collector.OnResponse(ctx, resp)
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	adapters, err := adapter.New(cfg.Adapters, handler, adapter.RuntimeOptions{Listen: opts.Listen, Console: console})
	if err != nil {
		return fmt.Errorf("configure channel: %w", err)
	}
	c.Adapters = adapters

	client, err := site.New(cfg.Booking)
	if err != nil {
		return fmt.Errorf("configure booking site: %w", err)
	}
	c.Site = client

	ttl, err := config.DurationOrDefault(cfg.Booking.SessionTTL, config.DefaultBookingSessionTTL)
	if err != nil {
		return fmt.Errorf("parse booking session ttl: %w", err)
	}
	c.Session = session.NewCache(client, session.WithTTL(ttl))
	c.Executor = booking.NewExecutor(c.Session, client, booking.WithLocation(loc))

	channel := adapters.Channel()
	c.Collector = collector.New(choices, channel, collector.WithExecuteAt(c.executeAt))

	var coordOpts []trigger.Option
	if rec != nil {
		coordOpts = append(coordOpts, trigger.WithRecorder(rec))
	}
	c.Coordinator = trigger.New(c.Collector, choices, c.Executor, channel, coordOpts...)

	slog.Debug("Runtime built", "state_dir", stateDir, "channel", channel.Name(), "history", cfg.History.Driver, "timezone", loc.String())
	return nil
}

// executeAt describes the next execution trigger for selection confirmations.
func (c *RuntimeComponents) executeAt() string {
	next, err := scheduler.Next(c.Config.Schedule.Execute, time.Now().In(c.Location))
	if err != nil {
		return "the scheduled time"
	}
	return next.Format("15:04")
}

// Stop releases the history connection and cancels the runtime context.
func (c *RuntimeComponents) Stop() {
	if c.History != nil {
		if err := c.History.Close(); err != nil {
			slog.Warn("Failed to close history", "error", err)
		}
		c.History = nil
	}
	if c.Cancel != nil {
		c.Cancel()
	}
}
