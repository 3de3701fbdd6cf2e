package navigator

import (
	"context"
	"sync"
)

// Tracker tags listing requests with a generation. Starting a new request
// cancels the one in flight, and only the latest generation may be applied.
type Tracker struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Next starts a new generation whose context derives from parent.
func (t *Tracker) Next(parent context.Context) (uint64, context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
	t.gen++
	ctx, cancel := context.WithCancel(parent)
	t.cancel = cancel
	return t.gen, ctx
}

// Current reports whether gen is still the latest generation.
func (t *Tracker) Current(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return gen == t.gen
}

// Stop cancels the request in flight and invalidates every issued generation.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.gen++
}
