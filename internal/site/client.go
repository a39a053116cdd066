// Package site is the HTTP client for the university facility-booking API.
package site

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harunnryd/gymslot/internal/config"
	"github.com/harunnryd/gymslot/internal/errors"
)

const (
	userAgent    = "gymslot/1.0"
	maxLoginBody = 1 << 20
)

type Client struct {
	hc            *http.Client
	baseURL       string
	loginPath     string
	bookPath      string
	username      string
	password      string
	loginTimeout  time.Duration
	bookTimeout   time.Duration
	facilityID    string
	subFacilityID string
}

// BookRequest is the body of a booking call. Date is DD-MON-YYYY.
type BookRequest struct {
	FacilityID    string `json:"facility_id"`
	SubFacilityID string `json:"sub_facility_id,omitempty"`
	Date          string `json:"date"`
	TimeRange     string `json:"time_range"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string `json:"token"`
	Session string `json:"session"`
	Message string `json:"message"`
}

func New(cfg config.BookingConfig) (*Client, error) {
	loginTimeout, err := config.DurationOrDefault(cfg.LoginTimeout, config.DefaultBookingLoginTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse booking login timeout: %w", err)
	}
	bookTimeout, err := config.DurationOrDefault(cfg.BookTimeout, config.DefaultBookingBookTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse booking book timeout: %w", err)
	}

	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = config.DefaultBookingLoginPath
	}
	bookPath := cfg.BookPath
	if bookPath == "" {
		bookPath = config.DefaultBookingBookPath
	}

	return &Client{
		// Per-call deadlines come from the request context; this is a backstop.
		hc:            &http.Client{Timeout: max(loginTimeout, bookTimeout)},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		loginPath:     loginPath,
		bookPath:      bookPath,
		username:      cfg.Username,
		password:      cfg.Password,
		loginTimeout:  loginTimeout,
		bookTimeout:   bookTimeout,
		facilityID:    cfg.FacilityID,
		subFacilityID: cfg.SubFacilityID,
	}, nil
}

// Login exchanges the configured username and password for a session token.
// Any failure, including a non-2xx status or a body with no token, wraps errors.ErrLogin.
func (c *Client) Login(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.loginTimeout)
	defer cancel()

	payload, err := json.Marshal(loginRequest{Username: c.username, Password: c.password})
	if err != nil {
		return "", err
	}

	res, err := c.do(ctx, c.loginPath, "", payload)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrLogin, errors.MapTransport(err))
	}
	defer res.Body.Close()

	status := res.StatusCode
	body, err := io.ReadAll(io.LimitReader(res.Body, maxLoginBody))
	if err != nil {
		return "", fmt.Errorf("%w: read login response: %w", errors.ErrLogin, errors.MapTransport(err))
	}
	if status < 200 || status > 299 {
		var r loginResponse
		_ = json.Unmarshal(body, &r)
		if r.Message != "" {
			return "", errors.Login(fmt.Sprintf("login rejected: %s (status=%d)", r.Message, status))
		}
		return "", errors.Login(fmt.Sprintf("login rejected (status=%d)", status))
	}

	var r loginResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return "", errors.Login(fmt.Sprintf("decode login response: %v", err))
	}
	token := r.Token
	if token == "" {
		token = r.Session
	}
	if token == "" {
		return "", errors.Login("login response carries neither token nor session")
	}
	return token, nil
}

// Book submits one booking request and returns the raw HTTP status.
// err is non-nil only for transport failures and wraps errors.ErrTransport.
// The status line alone decides the outcome, so the body is never read and a
// slow or broken body cannot turn a confirmed booking into a failure.
func (c *Client) Book(ctx context.Context, token, date, timeRange string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.bookTimeout)
	defer cancel()

	payload, err := json.Marshal(BookRequest{
		FacilityID:    c.facilityID,
		SubFacilityID: c.subFacilityID,
		Date:          date,
		TimeRange:     timeRange,
	})
	if err != nil {
		return 0, err
	}

	res, err := c.do(ctx, c.bookPath, token, payload)
	if err != nil {
		return 0, errors.MapTransport(err)
	}
	res.Body.Close()
	return res.StatusCode, nil
}

// do returns once response headers arrive; the caller closes the body.
func (c *Client) do(ctx context.Context, path, token string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.hc.Do(req)
}
