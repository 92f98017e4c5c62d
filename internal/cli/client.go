package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client knows how to reach one lobbyhub server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new client for the given server URL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Get performs a plain HTTP GET against the server
func (c *Client) Get(path string, result any) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// wsURL converts the configured http(s) URL to its ws(s) equivalent.
func (c *Client) wsURL() string {
	url := c.baseURL
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url + "/ws"
}

// Frame is one server-to-client event off the socket.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type ackFrame struct {
	AckID   int64           `json:"ackId"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type clientEnvelope struct {
	Event string `json:"event"`
	ID    int64  `json:"id"`
	Data  any    `json:"data,omitempty"`
}

// Conn is a live socket connection. One reader goroutine splits inbound
// frames into acks (matched to pending requests) and broadcast events.
type Conn struct {
	ws     *websocket.Conn
	events chan Frame

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan ackFrame
	readErr error
	closed  bool
}

// Dial opens a socket connection to the server
func (c *Client) Dial(ctx context.Context) (*Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("dialling %s: %w", c.wsURL(), err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	conn := &Conn{
		ws:      ws,
		events:  make(chan Frame, 64),
		pending: make(map[int64]chan ackFrame),
	}
	go conn.readLoop()
	return conn, nil
}

// Close shuts the connection down
func (conn *Conn) Close() error {
	conn.mu.Lock()
	conn.closed = true
	conn.mu.Unlock()
	return conn.ws.Close()
}

// Events returns the stream of broadcast events. The channel closes when the
// connection dies.
func (conn *Conn) Events() <-chan Frame {
	return conn.events
}

// Request sends one event and waits for its acknowledgement. A failed ack
// becomes an error; a successful ack's data is unmarshalled into result.
func (conn *Conn) Request(ctx context.Context, event string, payload, result any) error {
	conn.mu.Lock()
	if conn.readErr != nil {
		err := conn.readErr
		conn.mu.Unlock()
		return err
	}
	conn.nextID++
	id := conn.nextID
	ch := make(chan ackFrame, 1)
	conn.pending[id] = ch
	conn.mu.Unlock()

	defer func() {
		conn.mu.Lock()
		delete(conn.pending, id)
		conn.mu.Unlock()
	}()

	data, err := json.Marshal(clientEnvelope{Event: event, ID: id, Data: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	conn.writeMu.Lock()
	err = conn.ws.WriteMessage(websocket.TextMessage, data)
	conn.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to send %s: %w", event, err)
	}

	select {
	case ack := <-ch:
		if !ack.Success {
			if ack.Message == "" {
				return fmt.Errorf("%s failed", event)
			}
			return fmt.Errorf("%s", ack.Message)
		}
		if result != nil && len(ack.Data) > 0 {
			if err := json.Unmarshal(ack.Data, result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (conn *Conn) readLoop() {
	defer close(conn.events)
	for {
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			conn.mu.Lock()
			conn.readErr = err
			if conn.closed {
				conn.readErr = fmt.Errorf("connection closed")
			}
			conn.mu.Unlock()
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}

		if frame.Event == "ack" {
			var ack ackFrame
			if err := json.Unmarshal(frame.Data, &ack); err != nil {
				continue
			}
			conn.mu.Lock()
			ch, ok := conn.pending[ack.AckID]
			conn.mu.Unlock()
			if ok {
				ch <- ack
			}
			continue
		}

		conn.events <- frame
	}
}
