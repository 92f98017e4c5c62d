package lobby

import (
	"sync"
	"time"

	"github.com/kwhittier/lobbyhub/internal/dependencies/clock"
)

// InactivityTimer is a resettable single-shot deadline. Reset cancels any
// pending deadline and restarts the countdown; at most one deadline is
// pending at any time. Firing invokes the timeout callbacks exactly once and
// does not reschedule.
type InactivityTimer struct {
	clock    clock.Clock
	duration time.Duration

	mu        sync.Mutex
	pending   clock.Timer
	gen       uint64
	onTimeout []func()
	onReset   []func()
}

// NewInactivityTimer creates a stopped timer; call Reset to start it.
func NewInactivityTimer(clk clock.Clock, duration time.Duration) *InactivityTimer {
	return &InactivityTimer{clock: clk, duration: duration}
}

// OnTimeout registers a callback invoked when the deadline fires.
func (t *InactivityTimer) OnTimeout(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTimeout = append(t.onTimeout, fn)
}

// OnReset registers a callback invoked on every Reset.
func (t *InactivityTimer) OnReset(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReset = append(t.onReset, fn)
}

// Reset cancels the pending deadline, if any, and starts a fresh countdown.
func (t *InactivityTimer) Reset() {
	t.mu.Lock()
	if t.pending != nil {
		t.pending.Stop()
	}
	t.gen++
	gen := t.gen
	t.pending = t.clock.AfterFunc(t.duration, func() { t.fire(gen) })
	callbacks := append([]func(){}, t.onReset...)
	t.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Stop cancels the pending deadline without firing.
func (t *InactivityTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.gen++
}

// fire runs the timeout callbacks unless the generation it was scheduled for
// has since been reset or stopped. The generation check closes the race where
// a real timer is already firing while Reset is cancelling it.
func (t *InactivityTimer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.pending = nil
	callbacks := append([]func(){}, t.onTimeout...)
	t.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}
