package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/harunnryd/gymslot/internal/config"
	"github.com/harunnryd/gymslot/internal/errors"

	"github.com/slack-go/slack"
)

const (
	slackActionPrefix   = "gymslot_choice_"
	slackChoicesBlockID = "gymslot_choices"

	// Interaction payloads for a seven-button message stay far below this.
	maxSlackInteractionBody = 64 << 10
)

type SlackAdapter struct {
	signingSecret string
	channelID     string
	handler       ResponseHandler
	port          int
	client        *slack.Client

	mu     sync.Mutex
	server *http.Server
}

func NewSlackAdapter(cfg config.SlackConfig, handler ResponseHandler, opts ...slack.Option) *SlackAdapter {
	signingSecret := cfg.SigningSecret
	if signingSecret == "" {
		signingSecret = os.Getenv("SLACK_SIGNING_SECRET")
	}
	botToken := cfg.BotToken
	if botToken == "" {
		botToken = os.Getenv("SLACK_BOT_TOKEN")
	}
	port := cfg.Port
	if port <= 0 {
		port = config.DefaultSlackPort
	}
	return &SlackAdapter{
		signingSecret: signingSecret,
		channelID:     cfg.ChannelID,
		handler:       handler,
		port:          port,
		client:        slack.New(botToken, opts...),
	}
}

func (s *SlackAdapter) Name() string {
	return config.ChannelSlack
}

func (s *SlackAdapter) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/slack/interactions", s.handleInteractions)

	s.mu.Lock()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.server
	s.mu.Unlock()

	go func() {
		slog.Info("Slack Adapter listening", "port", s.port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Slack server failed", "error", err)
		}
	}()

	return nil
}

func (s *SlackAdapter) Stop(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func (s *SlackAdapter) SendText(ctx context.Context, text string) (string, error) {
	_, ts, err := s.client.PostMessageContext(ctx, s.channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return "", errors.Wrap(err, "failed to send Slack message")
	}
	slog.Debug("Slack message sent", "channel", s.channelID, "ts", ts)
	return ts, nil
}

func (s *SlackAdapter) SendChoices(ctx context.Context, text string, choices []Choice) (string, error) {
	buttons := make([]slack.BlockElement, 0, len(choices))
	for _, c := range choices {
		label := slack.NewTextBlockObject(slack.PlainTextType, c.Label, true, false)
		buttons = append(buttons, slack.NewButtonBlockElement(slackActionPrefix+c.ID, c.ID, label))
	}

	blocks := []slack.Block{
		textSection(text),
		slack.NewActionBlock(slackChoicesBlockID, buttons...),
	}

	_, ts, err := s.client.PostMessageContext(ctx, s.channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return "", errors.Wrap(err, "failed to send Slack choices")
	}
	return ts, nil
}

func (s *SlackAdapter) Acknowledge(ctx context.Context, resp Response, text string) error {
	if resp.UserID == "" {
		return nil
	}
	channel := resp.ChannelID
	if channel == "" {
		channel = s.channelID
	}
	if _, err := s.client.PostEphemeralContext(ctx, channel, resp.UserID, slack.MsgOptionText(text, false)); err != nil {
		return errors.Wrap(err, "failed to post Slack acknowledgment")
	}
	return nil
}

// EditText rewrites the message at timestamp messageID, replacing its buttons with plain text.
func (s *SlackAdapter) EditText(ctx context.Context, messageID string, text string) error {
	_, _, _, err := s.client.UpdateMessageContext(ctx, s.channelID, messageID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(textSection(text)),
	)
	if err != nil {
		return errors.Wrap(err, "failed to update Slack message")
	}
	return nil
}

func (s *SlackAdapter) Health(ctx context.Context) error {
	if s.client == nil {
		return errors.Transient("Slack client not initialized")
	}

	if _, err := s.client.AuthTestContext(ctx); err != nil {
		return errors.Transient("Slack connection failed")
	}

	return nil
}

func textSection(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)
}

func (s *SlackAdapter) handleInteractions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSlackInteractionBody))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	sv, err := slack.NewSecretsVerifier(r.Header, s.signingSecret)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if _, err := sv.Write(body); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if err := sv.Ensure(); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var cb slack.InteractionCallback
	if err := json.Unmarshal([]byte(form.Get("payload")), &cb); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Slack expects an answer within three seconds; the handler only touches local state
	// before replying through the Web API.
	w.WriteHeader(http.StatusOK)

	if cb.Type != slack.InteractionTypeBlockActions {
		return
	}

	channelID := cb.Channel.ID
	if channelID == "" {
		channelID = cb.Container.ChannelID
	}
	// Only the configured channel may make choices.
	if channelID != s.channelID {
		slog.Warn("Ignoring slack interaction from unexpected channel", "channel_id", channelID)
		return
	}

	messageTS := cb.Container.MessageTs
	if messageTS == "" {
		messageTS = cb.Message.Timestamp
	}

	for _, action := range cb.ActionCallback.BlockActions {
		if action == nil || !strings.HasPrefix(action.ActionID, slackActionPrefix) {
			continue
		}

		resp := Response{
			Source:      s.Name(),
			SelectionID: action.Value,
			MessageID:   messageTS,
			CallbackID:  cb.TriggerID,
			UserID:      cb.User.ID,
			ChannelID:   channelID,
		}

		if s.handler != nil {
			if err := s.handler(r.Context(), resp); err != nil {
				slog.Error("Failed to handle Slack response", "selection", resp.SelectionID, "error", err)
			}
		}
	}
}
