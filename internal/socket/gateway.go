package socket

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/kwhittier/lobbyhub/internal/dispatch"
	"github.com/kwhittier/lobbyhub/internal/transport"
)

// Envelope is the wire frame for one inbound client event. ID, when present,
// requests an acknowledgement frame carrying the same id.
type Envelope struct {
	Event string          `json:"event"`
	ID    *int64          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// AckFrame is the wire frame answering an Envelope that carried an id.
type AckFrame struct {
	AckID   int64  `json:"ackId"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Gateway routes inbound frames to the handler set owning their namespace
// prefix. Event names are "<prefix>:<event>"; the prefix may itself contain
// slashes (for example "lobby/A2B4C6:leave"), so the split is at the last
// colon. Handler sets come and go at runtime as lobbies open and close.
type Gateway struct {
	channels transport.Channels
	logger   *slog.Logger

	mu   sync.RWMutex
	sets map[string]*dispatch.HandlerSet
}

// NewGateway creates a gateway with no handler sets registered.
func NewGateway(channels transport.Channels, logger *slog.Logger) *Gateway {
	return &Gateway{
		channels: channels,
		logger:   logger.With(slog.String("component", "gateway")),
		sets:     make(map[string]*dispatch.HandlerSet),
	}
}

// Register adds a handler set, replacing any previous set with that prefix.
func (g *Gateway) Register(hs *dispatch.HandlerSet) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sets[hs.Prefix()] = hs
}

// Unregister removes the handler set for a prefix. Frames addressed to it
// afterwards are dropped.
func (g *Gateway) Unregister(prefix string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sets, prefix)
}

// HandleFrame parses one raw inbound frame and dispatches it. Unparseable
// frames and frames for unknown prefixes are dropped.
func (g *Gateway) HandleFrame(conn transport.Conn, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		g.logger.Debug("dropping unparseable frame",
			slog.String("conn", conn.ID()),
			slog.String("error", err.Error()))
		return
	}

	prefix, event, ok := splitEvent(env.Event)
	if !ok {
		g.logger.Debug("dropping frame without namespace",
			slog.String("conn", conn.ID()),
			slog.String("event", env.Event))
		return
	}

	g.mu.RLock()
	hs, found := g.sets[prefix]
	g.mu.RUnlock()
	if !found {
		g.logger.Debug("no handler set for prefix",
			slog.String("conn", conn.ID()),
			slog.String("prefix", prefix))
		return
	}

	var ack dispatch.Ack
	if env.ID != nil {
		id := *env.ID
		ack = func(success bool, message string, data any) {
			frame := AckFrame{AckID: id, Success: success, Message: message, Data: data}
			if err := conn.Send("ack", frame); err != nil {
				g.logger.Warn("ack delivery failed",
					slog.String("conn", conn.ID()),
					slog.String("error", err.Error()))
			}
		}
	}

	hs.Dispatch(conn, event, env.Data, ack)
}

// HandleDisconnect tells every handler set the connection is gone, then drops
// it from all channels.
func (g *Gateway) HandleDisconnect(conn transport.Conn) {
	g.mu.RLock()
	sets := make([]*dispatch.HandlerSet, 0, len(g.sets))
	for _, hs := range g.sets {
		sets = append(sets, hs)
	}
	g.mu.RUnlock()

	for _, hs := range sets {
		hs.HandleDisconnect(conn)
	}
	g.channels.Drop(conn)
}

// splitEvent splits "<prefix>:<event>" at the last colon.
func splitEvent(name string) (prefix, event string, ok bool) {
	i := strings.LastIndex(name, ":")
	if i <= 0 || i == len(name)-1 {
		return "", "", false
	}
	return name[:i], name[i+1:], true
}
