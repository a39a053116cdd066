// Package adaptertest provides an in-memory messaging channel for tests.
package adaptertest

import (
	"context"
	"strconv"
	"sync"

	"github.com/harunnryd/gymslot/internal/adapter"
)

type Sent struct {
	ID      string
	Text    string
	Choices []adapter.Choice
}

type Ack struct {
	Response adapter.Response
	Text     string
}

type Edit struct {
	MessageID string
	Text      string
}

// Channel records every call. Set the Err fields to make the matching call fail.
type Channel struct {
	mu    sync.Mutex
	seq   int
	sent  []Sent
	acks  []Ack
	edits []Edit

	SendErr   error
	AckErr    error
	EditErr   error
	PanicOn   string
	HealthErr error
}

func New() *Channel {
	return &Channel{}
}

func (c *Channel) Name() string { return "test" }

// SendText fails on a done context, like a real network send.
func (c *Channel) SendText(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return c.record(text, nil)
}

func (c *Channel) SendChoices(ctx context.Context, text string, choices []adapter.Choice) (string, error) {
	return c.record(text, choices)
}

func (c *Channel) record(text string, choices []adapter.Choice) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.PanicOn != "" && c.PanicOn == text {
		panic("adaptertest: send panicked")
	}
	c.seq++
	id := strconv.Itoa(c.seq)
	c.sent = append(c.sent, Sent{ID: id, Text: text, Choices: choices})
	if c.SendErr != nil {
		return "", c.SendErr
	}
	return id, nil
}

func (c *Channel) Acknowledge(ctx context.Context, resp adapter.Response, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acks = append(c.acks, Ack{Response: resp, Text: text})
	return c.AckErr
}

func (c *Channel) EditText(ctx context.Context, messageID string, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edits = append(c.edits, Edit{MessageID: messageID, Text: text})
	return c.EditErr
}

func (c *Channel) Health(ctx context.Context) error {
	return c.HealthErr
}

// Sent returns every outbound message, including failed sends.
func (c *Channel) Sent() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sent(nil), c.sent...)
}

func (c *Channel) Acks() []Ack {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Ack(nil), c.acks...)
}

func (c *Channel) Edits() []Edit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Edit(nil), c.edits...)
}
