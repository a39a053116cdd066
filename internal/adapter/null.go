package adapter

import (
	"context"
	"log/slog"

	"github.com/harunnryd/gymslot/internal/config"
)

// NullAdapter drops outbound messages after logging them.
type NullAdapter struct {
	name string
}

func NewNullAdapter(name string) *NullAdapter {
	if name == "" {
		name = config.ChannelNone
	}
	return &NullAdapter{name: name}
}

func (a *NullAdapter) Name() string {
	return a.name
}

func (a *NullAdapter) SendText(ctx context.Context, text string) (string, error) {
	slog.Info("Message dropped", "adapter", a.name, "text", text)
	return "", nil
}

func (a *NullAdapter) SendChoices(ctx context.Context, text string, choices []Choice) (string, error) {
	slog.Info("Choices dropped", "adapter", a.name, "text", text, "choices", len(choices))
	return "", nil
}

func (a *NullAdapter) Acknowledge(ctx context.Context, resp Response, text string) error {
	return nil
}

func (a *NullAdapter) EditText(ctx context.Context, messageID string, text string) error {
	return nil
}

func (a *NullAdapter) Health(ctx context.Context) error {
	return nil
}
