package adapter

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/harunnryd/gymslot/internal/config"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningSecret = "test-signing-secret"

func signedInteraction(t *testing.T, payload string) *http.Request {
	t.Helper()
	body := "payload=" + url.QueryEscape(payload)
	req := httptest.NewRequest(http.MethodPost, "/slack/interactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(testSigningSecret))
	_, _ = mac.Write([]byte("v0:" + ts + ":" + body))
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	return req
}

func TestSlackAdapter_InteractionFlow(t *testing.T) {
	var got []Response
	a := NewSlackAdapter(config.SlackConfig{SigningSecret: testSigningSecret, BotToken: "xoxb-test", ChannelID: "C123"},
		func(ctx context.Context, resp Response) error {
			got = append(got, resp)
			return nil
		})

	payload := `{"type":"block_actions","trigger_id":"trig-1","user":{"id":"U123"},"channel":{"id":"C123"},` +
		`"container":{"type":"message","message_ts":"1710000000.000100"},` +
		`"actions":[{"action_id":"gymslot_choice_5","block_id":"gymslot_choices","type":"button","value":"5"}]}`

	rr := httptest.NewRecorder()
	a.handleInteractions(rr, signedInteraction(t, payload))

	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, got, 1)
	assert.Equal(t, "slack", got[0].Source)
	assert.Equal(t, "5", got[0].SelectionID)
	assert.Equal(t, "1710000000.000100", got[0].MessageID)
	assert.Equal(t, "U123", got[0].UserID)
	assert.Equal(t, "C123", got[0].ChannelID)
}

func TestSlackAdapter_RejectsBadSignature(t *testing.T) {
	called := false
	a := NewSlackAdapter(config.SlackConfig{SigningSecret: testSigningSecret, BotToken: "xoxb-test"},
		func(ctx context.Context, resp Response) error {
			called = true
			return nil
		})

	req := signedInteraction(t, `{"type":"block_actions"}`)
	req.Header.Set("X-Slack-Signature", "v0=deadbeef")

	rr := httptest.NewRecorder()
	a.handleInteractions(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, called)
}

func TestSlackAdapter_IgnoresForeignActions(t *testing.T) {
	called := false
	a := NewSlackAdapter(config.SlackConfig{SigningSecret: testSigningSecret, BotToken: "xoxb-test"},
		func(ctx context.Context, resp Response) error {
			called = true
			return nil
		})

	payload := `{"type":"block_actions","user":{"id":"U1"},"actions":[{"action_id":"other","value":"1"}]}`
	rr := httptest.NewRecorder()
	a.handleInteractions(rr, signedInteraction(t, payload))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, called)
}

func TestSlackAdapter_IgnoresOtherChannels(t *testing.T) {
	called := false
	a := NewSlackAdapter(config.SlackConfig{SigningSecret: testSigningSecret, BotToken: "xoxb-test", ChannelID: "C123"},
		func(ctx context.Context, resp Response) error {
			called = true
			return nil
		})

	payload := `{"type":"block_actions","user":{"id":"U9"},"channel":{"id":"C999"},` +
		`"container":{"type":"message","message_ts":"1710000000.000100"},` +
		`"actions":[{"action_id":"gymslot_choice_2","type":"button","value":"2"}]}`

	rr := httptest.NewRecorder()
	a.handleInteractions(rr, signedInteraction(t, payload))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, called)
}

func TestSlackAdapter_RejectsOversizedBody(t *testing.T) {
	called := false
	a := NewSlackAdapter(config.SlackConfig{SigningSecret: testSigningSecret, BotToken: "xoxb-test", ChannelID: "C123"},
		func(ctx context.Context, resp Response) error {
			called = true
			return nil
		})

	payload := `{"type":"block_actions","channel":{"id":"C123"},"pad":"` + strings.Repeat("x", maxSlackInteractionBody) + `"}`
	rr := httptest.NewRecorder()
	a.handleInteractions(rr, signedInteraction(t, payload))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, called)
}

func TestSlackAdapter_SendChoicesPostsBlocks(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":true,"channel":"C123","ts":"1710000000.000200"}`)
	}))
	defer srv.Close()

	a := NewSlackAdapter(config.SlackConfig{BotToken: "xoxb-test", ChannelID: "C123"}, nil, slack.OptionAPIURL(srv.URL+"/"))

	ts, err := a.SendChoices(context.Background(), "Pick a slot", []Choice{{ID: "0", Label: "3:00 PM"}, {ID: "skip", Label: "Skip"}})
	require.NoError(t, err)
	assert.Equal(t, "1710000000.000200", ts)
	assert.Equal(t, "C123", form.Get("channel"))
	assert.Contains(t, form.Get("blocks"), "gymslot_choice_0")
	assert.Contains(t, form.Get("blocks"), "gymslot_choice_skip")
}
