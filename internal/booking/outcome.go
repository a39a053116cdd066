package booking

import (
	"fmt"
	"net/http"

	"github.com/harunnryd/gymslot/internal/errors"
)

type Kind string

const (
	KindSuccess        Kind = "success"
	KindRejected       Kind = "rejected"
	KindLoginFailed    Kind = "login_failed"
	KindTransportError Kind = "transport_error"
)

type Reason string

const (
	ReasonNone        Reason = ""
	ReasonWeeklyLimit Reason = "weekly_limit"
	ReasonGeneric     Reason = "generic"
)

// Outcome is the result of exactly one booking attempt.
type Outcome struct {
	Kind       Kind
	Reason     Reason
	StatusCode int
	Date       string
	TimeRange  string
	Cause      error
}

// classify maps a booking response status to an outcome.
func classify(status int) (Kind, Reason) {
	switch status {
	case http.StatusOK, http.StatusCreated:
		return KindSuccess, ReasonNone
	case http.StatusConflict:
		return KindRejected, ReasonWeeklyLimit
	default:
		return KindRejected, ReasonGeneric
	}
}

func (o Outcome) Succeeded() bool { return o.Kind == KindSuccess }

func (o Outcome) start() string {
	if len(o.TimeRange) >= 5 {
		return o.TimeRange[:5]
	}
	return o.TimeRange
}

// Message is the user-facing report of the attempt.
func (o Outcome) Message() string {
	switch o.Kind {
	case KindSuccess:
		return fmt.Sprintf("✅ Gym slot booked for %s at %s (%s).", o.Date, o.start(), o.TimeRange)
	case KindRejected:
		if o.Reason == ReasonWeeklyLimit {
			return fmt.Sprintf("⚠️ Booking for %s %s was rejected: weekly limit reached (status %d).", o.Date, o.TimeRange, o.StatusCode)
		}
		return fmt.Sprintf("❌ Booking for %s %s failed (status %d).", o.Date, o.TimeRange, o.StatusCode)
	case KindLoginFailed:
		return fmt.Sprintf("🔒 Could not log in to the booking site, no booking was made for %s %s: %v", o.Date, o.TimeRange, o.Cause)
	case KindTransportError:
		return fmt.Sprintf("📡 Booking request for %s %s did not complete: %v", o.Date, o.TimeRange, o.Cause)
	default:
		return fmt.Sprintf("❓ Booking for %s %s ended in an unknown state.", o.Date, o.TimeRange)
	}
}

// Err returns nil on success and a categorized error otherwise.
func (o Outcome) Err() error {
	switch o.Kind {
	case KindSuccess:
		return nil
	case KindRejected:
		if o.Reason == ReasonWeeklyLimit {
			return fmt.Errorf("status %d: %w: %w", o.StatusCode, errors.ErrWeeklyLimit, errors.ErrBookingRejected)
		}
		return fmt.Errorf("status %d: %w", o.StatusCode, errors.ErrBookingRejected)
	default:
		if o.Cause != nil {
			return o.Cause
		}
		return errors.Internal(string(o.Kind))
	}
}
