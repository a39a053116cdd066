package config

import (
	"fmt"
	"strings"
	"time"
)

// DurationOrDefault parses one of the string durations in the config
// (booking.login_timeout, booking.book_timeout, booking.session_ttl,
// store.lock_*, server.*_timeout, daemon.*) and falls back to defaultValue
// when the key is unset.
func DurationOrDefault(value string, defaultValue string) (time.Duration, error) {
	candidate := strings.TrimSpace(value)
	if candidate == "" {
		candidate = strings.TrimSpace(defaultValue)
	}
	if candidate == "" {
		return 0, fmt.Errorf("duration value is empty")
	}

	d, err := time.ParseDuration(candidate)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", candidate, err)
	}
	return d, nil
}
