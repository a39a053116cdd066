package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategory(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{Login("status 401"), "ErrLogin"},
		{UnknownSlot("9"), "ErrUnknownSlot"},
		{fmt.Errorf("409: %w", ErrWeeklyLimit), "ErrWeeklyLimit"},
		{fmt.Errorf("500: %w", ErrBookingRejected), "ErrBookingRejected"},
		{MapTransport(errors.New("dial tcp: refused")), "ErrTransport"},
		{InvalidInput("bad"), "ErrInvalidInput"},
		{errors.New("plain"), "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Category(tt.err))
	}
}

func TestMapTransport(t *testing.T) {
	assert.Nil(t, MapTransport(nil))
	assert.ErrorIs(t, MapTransport(context.Canceled), context.Canceled)
	assert.NotErrorIs(t, MapTransport(context.Canceled), ErrTransport)

	timeout := MapTransport(fmt.Errorf("post: %w", context.DeadlineExceeded))
	assert.ErrorIs(t, timeout, ErrTransport)
	assert.Contains(t, timeout.Error(), "timeout")
}

func TestUnknownSlotKeepsID(t *testing.T) {
	err := UnknownSlot("42")
	assert.True(t, IsCategory(err, ErrUnknownSlot))
	assert.Contains(t, err.Error(), `"42"`)
}
