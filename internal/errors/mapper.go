package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Category returns the taxonomy name of err, used in logs and attempt history.
func Category(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrLogin):
		return "ErrLogin"
	case errors.Is(err, ErrUnknownSlot):
		return "ErrUnknownSlot"
	case errors.Is(err, ErrNoSelection):
		return "ErrNoSelection"
	case errors.Is(err, ErrWeeklyLimit):
		return "ErrWeeklyLimit"
	case errors.Is(err, ErrBookingRejected):
		return "ErrBookingRejected"
	case errors.Is(err, ErrTransport):
		return "ErrTransport"
	case errors.Is(err, ErrInvalidInput):
		return "ErrInvalidInput"
	case errors.Is(err, ErrNotFound):
		return "ErrNotFound"
	case errors.Is(err, ErrTransient):
		return "ErrTransient"
	case errors.Is(err, ErrInternal):
		return "ErrInternal"
	default:
		return "Unknown"
	}
}

// MapTransport classifies an error returned by an HTTP round trip.
// Timeouts and network failures become ErrTransport; cancellation is kept as-is.
func MapTransport(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timeout: %w", ErrTransport)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("request timeout: %v: %w", err, ErrTransport)
	}

	return fmt.Errorf("%v: %w", err, ErrTransport)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", message, err)
}

// IsCategory checks if error belongs to specific category
func IsCategory(err error, category error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, category)
}

// Is and As mirror the standard library so callers need a single import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

// NotFound wraps error as not found
func NotFound(message string) error {
	return fmt.Errorf("%s: %w", message, ErrNotFound)
}

// InvalidInput wraps error as invalid input
func InvalidInput(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidInput)
}

// Transient wraps error as transient
func Transient(message string) error {
	return fmt.Errorf("%s: %w", message, ErrTransient)
}

// Internal wraps error as internal
func Internal(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInternal)
}

// Login wraps error as a login failure
func Login(message string) error {
	return fmt.Errorf("%s: %w", message, ErrLogin)
}

// UnknownSlot wraps the offending id as an unknown slot
func UnknownSlot(id string) error {
	return fmt.Errorf("slot %q: %w", id, ErrUnknownSlot)
}
