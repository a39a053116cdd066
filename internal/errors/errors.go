package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrLogin - the booking site rejected or failed the login exchange (report to user, no booking request)
	ErrLogin = errors.New("login failed")

	// ErrUnknownSlot - slot id is not in the catalog (treated as no selection at execution time)
	ErrUnknownSlot = errors.New("unknown slot")

	// ErrNoSelection - nothing stored when the execution trigger fired
	ErrNoSelection = errors.New("no selection")

	// ErrBookingRejected - booking endpoint answered with a non-success status
	ErrBookingRejected = errors.New("booking rejected")

	// ErrWeeklyLimit - booking endpoint answered 409, the weekly allowance is used up
	ErrWeeklyLimit = errors.New("weekly limit reached")

	// ErrTransport - network failure or timeout talking to the booking site
	ErrTransport = errors.New("transport error")

	// ErrInvalidInput - invalid input (bad config value, malformed time range)
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound - resource not found
	ErrNotFound = errors.New("not found")

	// ErrTransient - transient error, safe to try again later
	ErrTransient = errors.New("transient error")

	// ErrInternal - internal error
	ErrInternal = errors.New("internal error")
)
