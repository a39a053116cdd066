package concurrency

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtect_ReturnsError(t *testing.T) {
	want := fmt.Errorf("send failed")
	assert.Equal(t, want, Protect("send", func() error { return want }))
	assert.NoError(t, Protect("send", func() error { return nil }))
}

func TestProtect_RecoversPanic(t *testing.T) {
	err := Protect("send", func() error { panic("nil channel") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send panicked: nil channel")
}

func TestSafeGo_CallsOnPanic(t *testing.T) {
	got := make(chan interface{}, 1)
	SafeGo(func() { panic("boom") }, func(r interface{}) { got <- r })

	select {
	case r := <-got:
		assert.Equal(t, "boom", r)
	case <-time.After(time.Second):
		t.Fatal("onPanic was not called")
	}
}
