package adapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/harunnryd/gymslot/internal/config"
)

type RuntimeOptions struct {
	// Listen starts the inbound side. One-shot commands only send.
	Listen bool
	// Console is where the console channel writes.
	Console io.Writer
}

// RuntimeManager owns the configured channel and, when listening, its listener.
type RuntimeManager struct {
	mu       sync.Mutex
	channel  Channel
	listener Listener
	started  bool
}

// New picks the channel named by cfg.Channel.
func New(cfg config.AdaptersConfig, handler ResponseHandler, opts RuntimeOptions) (*RuntimeManager, error) {
	m := &RuntimeManager{}

	switch cfg.Channel {
	case config.ChannelTelegram:
		tg := NewTelegramAdapter(cfg.Telegram, handler)
		m.channel = tg
		if opts.Listen {
			m.listener = tg
		}
	case config.ChannelSlack:
		sl := NewSlackAdapter(cfg.Slack, handler)
		m.channel = sl
		if opts.Listen {
			m.listener = sl
		}
	case config.ChannelConsole:
		m.channel = NewConsoleAdapter(opts.Console)
	case config.ChannelNone, "":
		m.channel = NewNullAdapter(config.ChannelNone)
	default:
		return nil, fmt.Errorf("unknown adapters.channel %q", cfg.Channel)
	}

	return m, nil
}

func (m *RuntimeManager) Channel() Channel {
	return m.channel
}

func (m *RuntimeManager) Listening() bool {
	return m.listener != nil
}

func (m *RuntimeManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started || m.listener == nil {
		return nil
	}

	slog.Info("Starting listener", "adapter", m.listener.Name())
	if err := m.listener.Start(ctx); err != nil {
		return fmt.Errorf("failed to start %s listener: %w", m.listener.Name(), err)
	}
	m.started = true
	return nil
}

func (m *RuntimeManager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return nil
	}
	m.started = false
	if err := m.listener.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop %s listener: %w", m.listener.Name(), err)
	}
	return nil
}

func (m *RuntimeManager) Health(ctx context.Context) error {
	if err := m.channel.Health(ctx); err != nil {
		return fmt.Errorf("channel %s unhealthy: %w", m.channel.Name(), err)
	}
	return nil
}
