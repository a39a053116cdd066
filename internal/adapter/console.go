package adapter

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/harunnryd/gymslot/internal/config"

	"charm.land/lipgloss/v2"
)

var (
	consoleTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	consoleErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	consoleChoiceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	consoleAckStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// ConsoleAdapter prints messages to a terminal. Message ids are sequence numbers.
type ConsoleAdapter struct {
	mu  sync.Mutex
	out io.Writer
	seq atomic.Int64
}

func NewConsoleAdapter(out io.Writer) *ConsoleAdapter {
	if out == nil {
		out = io.Discard
	}
	return &ConsoleAdapter{out: out}
}

func (a *ConsoleAdapter) Name() string {
	return config.ChannelConsole
}

func (a *ConsoleAdapter) SendText(ctx context.Context, text string) (string, error) {
	style := consoleTextStyle
	if strings.HasPrefix(text, "❌") || strings.HasPrefix(text, "⚠") {
		style = consoleErrorStyle
	}
	return a.write(style.Render(text))
}

func (a *ConsoleAdapter) SendChoices(ctx context.Context, text string, choices []Choice) (string, error) {
	var b strings.Builder
	b.WriteString(consoleTextStyle.Render(text))
	for _, c := range choices {
		b.WriteString("\n  ")
		b.WriteString(consoleChoiceStyle.Render(fmt.Sprintf("[%s] %s", c.ID, c.Label)))
	}
	return a.write(b.String())
}

func (a *ConsoleAdapter) Acknowledge(ctx context.Context, resp Response, text string) error {
	_, err := a.write(consoleAckStyle.Render(text))
	return err
}

func (a *ConsoleAdapter) EditText(ctx context.Context, messageID string, text string) error {
	_, err := a.write(consoleTextStyle.Render(text))
	return err
}

func (a *ConsoleAdapter) Health(ctx context.Context) error {
	return nil
}

func (a *ConsoleAdapter) write(s string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := fmt.Fprintln(a.out, s); err != nil {
		return "", err
	}
	return strconv.FormatInt(a.seq.Add(1), 10), nil
}
