package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/harunnryd/gymslot/internal/concurrency"
	"github.com/harunnryd/gymslot/internal/config"
	"github.com/harunnryd/gymslot/internal/errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramAdapter struct {
	token         string
	chatID        int64
	endpoint      string
	updateTimeout int
	handler       ResponseHandler

	mu      sync.Mutex
	bot     *tgbotapi.BotAPI
	done    chan struct{}
	running bool
}

func NewTelegramAdapter(cfg config.TelegramConfig, handler ResponseHandler) *TelegramAdapter {
	updateTimeout := cfg.UpdateTimeout
	if updateTimeout <= 0 {
		updateTimeout = config.DefaultTelegramUpdateTimeout
	}
	endpoint := strings.TrimSpace(cfg.APIEndpoint)
	if endpoint == "" {
		endpoint = config.DefaultTelegramAPIEndpoint
	}
	return &TelegramAdapter{
		token:         strings.TrimSpace(cfg.BotToken),
		chatID:        cfg.ChatID,
		endpoint:      endpoint,
		updateTimeout: updateTimeout,
		handler:       handler,
	}
}

func (t *TelegramAdapter) Name() string {
	return config.ChannelTelegram
}

// client connects on first use so one-shot commands can send without Start.
func (t *TelegramAdapter) client() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bot != nil {
		return t.bot, nil
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(t.token, t.endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init telegram bot")
	}
	t.bot = bot
	return bot, nil
}

func (t *TelegramAdapter) Start(ctx context.Context) error {
	bot, err := t.client()
	if err != nil {
		return err
	}

	slog.Info("Telegram Adapter started", "user", bot.Self.UserName, "chat_id", t.chatID)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.updateTimeout
	u.AllowedUpdates = []string{"callback_query", "message"}
	updates := bot.GetUpdatesChan(u)

	t.mu.Lock()
	t.done = make(chan struct{})
	t.running = true
	done := t.done
	t.mu.Unlock()

	concurrency.SafeGo(func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				_ = concurrency.Protect("telegram update", func() error {
					t.handleUpdate(ctx, update)
					return nil
				})
			}
		}
	}, nil)

	return nil
}

func (t *TelegramAdapter) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return nil
	}
	t.running = false
	close(t.done)
	if t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
	return nil
}

func (t *TelegramAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil {
		slog.Debug("Ignoring telegram text message", "chat_id", update.Message.Chat.ID)
		return
	}

	cq := update.CallbackQuery
	if cq == nil || cq.Message == nil || cq.Message.Chat == nil {
		return
	}

	// Only the configured chat may make choices.
	if cq.Message.Chat.ID != t.chatID {
		slog.Warn("Ignoring telegram callback from unexpected chat", "chat_id", cq.Message.Chat.ID)
		return
	}

	resp := Response{
		Source:      t.Name(),
		SelectionID: cq.Data,
		MessageID:   strconv.Itoa(cq.Message.MessageID),
		CallbackID:  cq.ID,
		ChannelID:   strconv.FormatInt(cq.Message.Chat.ID, 10),
	}
	if cq.From != nil {
		resp.UserID = strconv.FormatInt(cq.From.ID, 10)
	}

	if t.handler != nil {
		if err := t.handler(ctx, resp); err != nil {
			slog.Error("Failed to handle Telegram response", "selection", resp.SelectionID, "error", err)
		}
	}
}

func (t *TelegramAdapter) SendText(ctx context.Context, text string) (string, error) {
	return t.send(tgbotapi.NewMessage(t.chatID, text))
}

func (t *TelegramAdapter) SendChoices(ctx context.Context, text string, choices []Choice) (string, error) {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(choices))
	for _, c := range choices {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(c.Label, c.ID)))
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	return t.send(msg)
}

func (t *TelegramAdapter) send(msg tgbotapi.MessageConfig) (string, error) {
	bot, err := t.client()
	if err != nil {
		return "", err
	}

	sent, err := bot.Send(msg)
	if err != nil {
		return "", errors.Wrap(err, "failed to send telegram message")
	}

	slog.Debug("Telegram message sent", "chat_id", t.chatID, "message_id", sent.MessageID)
	return strconv.Itoa(sent.MessageID), nil
}

func (t *TelegramAdapter) Acknowledge(ctx context.Context, resp Response, text string) error {
	if resp.CallbackID == "" {
		return nil
	}
	bot, err := t.client()
	if err != nil {
		return err
	}
	if _, err := bot.Request(tgbotapi.NewCallback(resp.CallbackID, text)); err != nil {
		return errors.Wrap(err, "failed to answer telegram callback")
	}
	return nil
}

func (t *TelegramAdapter) EditText(ctx context.Context, messageID string, text string) error {
	id, err := strconv.Atoi(messageID)
	if err != nil {
		return errors.InvalidInput(fmt.Sprintf("invalid telegram message id %q", messageID))
	}
	bot, err := t.client()
	if err != nil {
		return err
	}
	if _, err := bot.Request(tgbotapi.NewEditMessageText(t.chatID, id, text)); err != nil {
		return errors.Wrap(err, "failed to edit telegram message")
	}
	return nil
}

func (t *TelegramAdapter) Health(ctx context.Context) error {
	t.mu.Lock()
	bot := t.bot
	t.mu.Unlock()

	if bot == nil {
		return errors.Transient("Telegram bot not initialized")
	}

	if _, err := bot.GetMe(); err != nil {
		return errors.Transient("Telegram connection failed: " + err.Error())
	}

	return nil
}
