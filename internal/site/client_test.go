package site

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harunnryd/gymslot/internal/config"
	"github.com/harunnryd/gymslot/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, baseURL string, mutate func(*config.BookingConfig)) *Client {
	t.Helper()
	cfg := config.BookingConfig{
		BaseURL:       baseURL,
		Username:      "student",
		Password:      "hunter2",
		FacilityID:    "GYM-1",
		SubFacilityID: "FLOOR-2",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestLogin_TokenField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, config.DefaultBookingLoginPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "student", body.Username)
		assert.Equal(t, "hunter2", body.Password)

		w.Write([]byte(`{"token":"abc"}`))
	}))
	defer srv.Close()

	token, err := newClient(t, srv.URL, nil).Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestLogin_SessionFieldFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"session":"sess-1"}`))
	}))
	defer srv.Close()

	token, err := newClient(t, srv.URL+"/", nil).Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", token)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"bad password"}`},
		{"server error", http.StatusInternalServerError, ``},
		{"no token", http.StatusOK, `{"user":"student"}`},
		{"not json", http.StatusOK, `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newClient(t, srv.URL, nil).Login(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrLogin)
		})
	}
}

func TestLogin_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, func(b *config.BookingConfig) { b.LoginTimeout = "50ms" })
	_, err := c.Login(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrLogin)
	assert.ErrorIs(t, err, errors.ErrTransport)
}

func TestBook_SendsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, config.DefaultBookingBookPath, r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body BookRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, BookRequest{
			FacilityID:    "GYM-1",
			SubFacilityID: "FLOOR-2",
			Date:          "16-OCT-2026",
			TimeRange:     "19:00-20:00",
		}, body)

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	status, err := newClient(t, srv.URL, nil).Book(context.Background(), "tok", "16-OCT-2026", "19:00-20:00")
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
}

func TestBook_ReturnsNonSuccessStatusWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	status, err := newClient(t, srv.URL, nil).Book(context.Background(), "tok", "16-OCT-2026", "15:00-16:00")
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, status)
}

func TestBook_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newClient(t, url, nil).Book(context.Background(), "tok", "16-OCT-2026", "15:00-16:00")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTransport)
}

func TestBook_StatusWinsOverStalledBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("{"))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, func(cfg *config.BookingConfig) { cfg.BookTimeout = "200ms" })

	status, err := c.Book(context.Background(), "tok", "16-OCT-2026", "15:00-16:00")
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
}

func TestNew_RejectsBadTimeouts(t *testing.T) {
	_, err := New(config.BookingConfig{BookTimeout: "fast"})
	assert.Error(t, err)
}
