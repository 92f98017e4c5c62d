// Package dispatch routes inbound client events to typed handlers.
//
// A HandlerSet owns one namespace prefix. Every inbound event named
// "<prefix>:<event>" is unmarshalled and validated against the handler's
// declared payload type before the handler runs; malformed payloads never
// reach domain code. Expected failures (ClientError) are reported to the
// client, unexpected ones are logged and reduced to a generic message, and no
// handler failure ever stops the dispatcher.
package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kwhittier/lobbyhub/internal/transport"
)

// Ack reports the outcome of an event back to its originator. It is nil for
// events sent without an acknowledgement callback.
type Ack func(success bool, message string, data any)

// Context carries the originating connection and the channel surface into a
// handler invocation.
type Context struct {
	Conn     transport.Conn
	Channels transport.Channels
	Event    string
}

// HandlerFunc handles one validated event. The returned data is delivered via
// the event's ack, if it has one. Returning a *ClientError (or an error
// mapped to one by the set's Mapper) reports an expected failure to the
// client; any other error is a server error.
type HandlerFunc[T any] func(ctx Context, payload T) (any, error)

// Options configures a HandlerSet's error and connection callbacks. Zero
// callbacks fall back to defaults: errors are emitted to the originating
// connection as an "error" event, all connections are admitted, and
// disconnects are ignored.
type Options struct {
	OnClientError func(conn transport.Conn, cerr *ClientError)
	OnServerError func(conn transport.Conn, err error)

	// OnConnect may reject a connection; a rejected connection's events are
	// ignored by this set and its disconnect hook is not invoked.
	OnConnect    func(conn transport.Conn) bool
	OnDisconnect func(conn transport.Conn)

	// Mapper translates domain errors into ClientErrors before
	// classification. Errors it leaves alone remain server errors.
	Mapper func(err error) *ClientError
}

type handlerEntry struct {
	decode func(raw json.RawMessage) (any, error)
	invoke func(ctx Context, payload any) (any, error)
}

// HandlerSet is the handler table for one namespace prefix.
type HandlerSet struct {
	prefix   string
	channels transport.Channels
	opts     Options
	logger   *slog.Logger
	validate *validator.Validate

	mu       sync.RWMutex
	handlers map[string]handlerEntry
	admitted map[string]bool
}

// NewHandlerSet creates an empty handler set for a namespace prefix.
func NewHandlerSet(prefix string, channels transport.Channels, logger *slog.Logger, opts Options) *HandlerSet {
	return &HandlerSet{
		prefix:   prefix,
		channels: channels,
		opts:     opts,
		logger:   logger.With(slog.String("component", "dispatch"), slog.String("prefix", prefix)),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		handlers: make(map[string]handlerEntry),
		admitted: make(map[string]bool),
	}
}

// Prefix returns the namespace prefix this set handles.
func (hs *HandlerSet) Prefix() string { return hs.prefix }

// On registers fn for events named "<prefix>:<event>". The payload type's
// `validate` tags form the event's schema.
func On[T any](hs *HandlerSet, event string, fn HandlerFunc[T]) {
	entry := handlerEntry{
		decode: func(raw json.RawMessage) (any, error) {
			var payload T
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &payload); err != nil {
					return nil, fmt.Errorf("malformed payload: %w", err)
				}
			}
			if err := hs.validate.Struct(&payload); err != nil {
				return nil, err
			}
			return payload, nil
		},
		invoke: func(ctx Context, payload any) (any, error) {
			return fn(ctx, payload.(T))
		},
	}

	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.handlers[event] = entry
}

// Handles reports whether this set declares the given event name.
func (hs *HandlerSet) Handles(event string) bool {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	_, ok := hs.handlers[event]
	return ok
}

// Admit runs the connection-admission hook for a connection, memoizing the
// result for the connection's lifetime.
func (hs *HandlerSet) Admit(conn transport.Conn) bool {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	if ok, seen := hs.admitted[conn.ID()]; seen {
		return ok
	}
	ok := true
	if hs.opts.OnConnect != nil {
		ok = hs.opts.OnConnect(conn)
	}
	hs.admitted[conn.ID()] = ok
	return ok
}

// HandleDisconnect invokes the disconnect hook once for a closing physical
// connection, unless the set had rejected it, and forgets the connection.
func (hs *HandlerSet) HandleDisconnect(conn transport.Conn) {
	ok := hs.Admit(conn)
	hs.mu.Lock()
	delete(hs.admitted, conn.ID())
	hs.mu.Unlock()
	if ok && hs.opts.OnDisconnect != nil {
		hs.opts.OnDisconnect(conn)
	}
}

// Dispatch validates and routes one inbound event. Unknown events are
// ignored. Dispatch never panics and never propagates handler errors.
func (hs *HandlerSet) Dispatch(conn transport.Conn, event string, raw json.RawMessage, ack Ack) {
	hs.mu.RLock()
	entry, ok := hs.handlers[event]
	hs.mu.RUnlock()
	if !ok {
		return
	}

	if !hs.Admit(conn) {
		return
	}

	payload, err := entry.decode(raw)
	if err != nil {
		hs.clientError(conn, ack, NewClientError(validationMessage(err)))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			hs.serverError(conn, ack, fmt.Errorf("handler panic on %s:%s: %v", hs.prefix, event, r))
		}
	}()

	ctx := Context{Conn: conn, Channels: hs.channels, Event: event}
	data, err := entry.invoke(ctx, payload)
	if err != nil {
		if cerr := hs.classify(err); cerr != nil {
			hs.clientError(conn, ack, cerr)
		} else {
			hs.serverError(conn, ack, err)
		}
		return
	}

	if ack != nil {
		ack(true, "", data)
	}
}

// classify maps an error to a ClientError, or nil if it is a server error.
func (hs *HandlerSet) classify(err error) *ClientError {
	var cerr *ClientError
	if errors.As(err, &cerr) {
		return cerr
	}
	if hs.opts.Mapper != nil {
		return hs.opts.Mapper(err)
	}
	return nil
}

func (hs *HandlerSet) clientError(conn transport.Conn, ack Ack, cerr *ClientError) {
	if ack != nil {
		ack(false, cerr.Message, nil)
	}
	if hs.opts.OnClientError != nil {
		hs.opts.OnClientError(conn, cerr)
		return
	}
	_ = conn.Send("error", map[string]any{"error": cerr.Message, "code": cerr.Code})
}

func (hs *HandlerSet) serverError(conn transport.Conn, ack Ack, err error) {
	hs.logger.Error("handler failed", slog.Any("error", err))
	if ack != nil {
		ack(false, "server error", nil)
	}
	if hs.opts.OnServerError != nil {
		hs.opts.OnServerError(conn, err)
		return
	}
	_ = conn.Send("error", map[string]any{"error": "server error"})
}

// validationMessage flattens a validation failure into a client-safe message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return fmt.Sprintf("invalid field %q: failed %q", f.Field(), f.Tag())
	}
	return err.Error()
}
