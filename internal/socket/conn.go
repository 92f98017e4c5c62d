package socket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kwhittier/lobbyhub/internal/transport"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024
	// Outbound queue size per connection.
	sendQueueSize = 256
)

// ServerFrame is the wire frame for one server-to-client event.
type ServerFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

var errConnClosed = errors.New("connection closed")

// wsConn adapts a websocket connection to transport.Conn. Sends are queued
// and written by a single writer goroutine; a slow or dead peer eventually
// fills the queue and the send fails rather than blocking the caller.
type wsConn struct {
	id     string
	auth   map[string]string
	ws     *websocket.Conn
	logger *slog.Logger

	sendCh chan []byte
	done   chan struct{}
	once   sync.Once
}

var _ transport.Conn = (*wsConn)(nil)

func newWSConn(ws *websocket.Conn, r *http.Request, logger *slog.Logger) *wsConn {
	auth := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			auth[key] = values[0]
		}
	}
	id := uuid.NewString()
	return &wsConn{
		id:     id,
		auth:   auth,
		ws:     ws,
		logger: logger.With(slog.String("conn", id)),
		sendCh: make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Auth() map[string]string { return c.auth }

func (c *wsConn) Send(event string, data any) error {
	payload, err := json.Marshal(ServerFrame{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("marshalling %s frame: %w", event, err)
	}
	select {
	case c.sendCh <- payload:
		return nil
	case <-c.done:
		return errConnClosed
	default:
		return fmt.Errorf("send queue full for %s", c.id)
	}
}

// close makes Send fail fast and stops the write pump.
func (c *wsConn) close() {
	c.once.Do(func() { close(c.done) })
}

// writePump drains the send queue onto the wire and keeps the connection
// alive with pings. One writer goroutine per connection.
func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case payload := <-c.sendCh:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// readPump feeds inbound frames to the gateway until the peer goes away,
// then reports the disconnect.
func (c *wsConn) readPump(gateway *Gateway) {
	defer func() {
		c.close()
		gateway.HandleDisconnect(c)
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("read error", slog.String("error", err.Error()))
			}
			return
		}
		gateway.HandleFrame(c, raw)
	}
}
