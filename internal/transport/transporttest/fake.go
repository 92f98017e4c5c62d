// Package transporttest provides in-memory transport fakes for tests.
package transporttest

import (
	"sync"

	"github.com/kwhittier/lobbyhub/internal/transport"
)

// SentEvent is one event recorded by a FakeConn.
type SentEvent struct {
	Event string
	Data  any
}

// FakeConn is an in-memory transport.Conn that records everything sent to it.
type FakeConn struct {
	id   string
	auth map[string]string

	mu   sync.Mutex
	sent []SentEvent
}

var _ transport.Conn = (*FakeConn)(nil)

// NewConn creates a FakeConn with the given id and no handshake auth.
func NewConn(id string) *FakeConn {
	return &FakeConn{id: id, auth: map[string]string{}}
}

// NewConnWithAuth creates a FakeConn with the given handshake auth fields.
func NewConnWithAuth(id string, auth map[string]string) *FakeConn {
	return &FakeConn{id: id, auth: auth}
}

func (c *FakeConn) ID() string { return c.id }

func (c *FakeConn) Auth() map[string]string { return c.auth }

func (c *FakeConn) Send(event string, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, SentEvent{Event: event, Data: data})
	return nil
}

// Sent returns a copy of all events sent to this connection so far.
func (c *FakeConn) Sent() []SentEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SentEvent, len(c.sent))
	copy(out, c.sent)
	return out
}

// SentNamed returns the recorded events with the given name.
func (c *FakeConn) SentNamed(event string) []SentEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []SentEvent
	for _, ev := range c.sent {
		if ev.Event == event {
			out = append(out, ev)
		}
	}
	return out
}

// Reset discards all recorded events.
func (c *FakeConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = nil
}
