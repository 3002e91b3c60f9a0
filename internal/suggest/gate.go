package suggest

import (
	"context"
	"sync"
	"time"
)

// Gate coalesces bursts of events into a single action after a quiet period.
// Each Arm cancels whatever the previous Arm started, so only the most recent
// arming can reach the end of its wait.
type Gate struct {
	delay time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewGate creates a Gate with the given quiet period.
func NewGate(delay time.Duration) *Gate {
	return &Gate{delay: delay}
}

// Delay returns the quiet period.
func (g *Gate) Delay() time.Duration {
	return g.delay
}

// Arm cancels any pending arming and returns the context for a new one.
// The context is cancelled by the next Arm or Cancel.
func (g *Gate) Arm() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
	}
	g.cancel = cancel

	return ctx
}

// Wait blocks for the quiet period. It returns false if ctx was cancelled
// before the period elapsed.
func (g *Gate) Wait(ctx context.Context) bool {
	timer := time.NewTimer(g.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return ctx.Err() == nil
	}
}

// Cancel cancels the pending arming, if any.
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}
