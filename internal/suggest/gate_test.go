package suggest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGate_WaitElapses(t *testing.T) {
	g := NewGate(10 * time.Millisecond)
	ctx := g.Arm()

	assert.True(t, g.Wait(ctx))
	assert.Equal(t, 10*time.Millisecond, g.Delay())
}

func TestGate_RearmCancelsPrevious(t *testing.T) {
	g := NewGate(50 * time.Millisecond)
	first := g.Arm()
	second := g.Arm()

	assert.False(t, g.Wait(first))
	assert.True(t, g.Wait(second))
}

func TestGate_Cancel(t *testing.T) {
	g := NewGate(time.Second)
	ctx := g.Arm()

	done := make(chan bool, 1)
	go func() { done <- g.Wait(ctx) }()

	g.Cancel()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("wait did not return after cancel")
	}

	// Cancel without a pending arming is a no-op.
	g.Cancel()
}
