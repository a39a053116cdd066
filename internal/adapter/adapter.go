package adapter

import (
	"context"
)

// Choice is one button offered to the user.
type Choice struct {
	ID    string
	Label string
}

// Response is a user's tap on a Choice, as delivered by an input adapter.
type Response struct {
	Source      string
	SelectionID string
	// MessageID identifies the message that carried the choices, so it can be edited.
	MessageID string
	// CallbackID is the platform handle used to acknowledge the tap (Telegram callback query id).
	CallbackID string
	UserID     string
	ChannelID  string
}

// ResponseHandler receives user responses from input adapters.
// It is a plain callback so adapters do not depend on the collector.
type ResponseHandler func(ctx context.Context, resp Response) error

// Channel is the outbound side of a messaging platform.
type Channel interface {
	// Name returns the adapter name (e.g. "telegram", "slack", "console").
	Name() string

	// SendText sends a one-way message and returns its platform id.
	SendText(ctx context.Context, text string) (string, error)

	// SendChoices sends text with one button per choice and returns the message id.
	SendChoices(ctx context.Context, text string, choices []Choice) (string, error)

	// Acknowledge shows a short, transient confirmation for resp.
	Acknowledge(ctx context.Context, resp Response, text string) error

	// EditText replaces the text of a previously sent message and drops its buttons.
	EditText(ctx context.Context, messageID string, text string) error

	// Health checks if the adapter can reach its platform.
	Health(ctx context.Context) error
}

// Listener is the inbound side: it delivers Responses to a ResponseHandler.
type Listener interface {
	Name() string

	// Start begins listening (long-poll or HTTP server) and returns once running.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the listener.
	Stop(ctx context.Context) error

	Health(ctx context.Context) error
}
