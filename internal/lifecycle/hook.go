// Package lifecycle provides typed, synchronous, in-process publish/subscribe
// hooks. A lobby owns one hook per lifecycle event and emits on it as state
// changes; the owning registry and the socket layer subscribe listeners.
package lifecycle

import "sync"

// Hook is a single event's listener list. Emit runs every listener
// synchronously on the calling goroutine, in subscription order; listener
// removal order is not guaranteed and listeners cannot be removed
// individually. The zero value is ready to use.
type Hook[T any] struct {
	mu        sync.Mutex
	listeners []func(T)
}

// Subscribe registers a listener. Multiple listeners per hook are supported.
func (h *Hook[T]) Subscribe(fn func(T)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Emit invokes every registered listener with the event, synchronously.
// Listeners must not call back into the emitting component's locked methods.
func (h *Hook[T]) Emit(ev T) {
	h.mu.Lock()
	listeners := make([]func(T), len(h.listeners))
	copy(listeners, h.listeners)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

// Len reports the number of registered listeners.
func (h *Hook[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}
