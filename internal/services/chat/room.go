package chat

import (
	"log/slog"
	"sync"
	"time"

	"github.com/kwhittier/lobbyhub/internal/dependencies/clock"
	"github.com/kwhittier/lobbyhub/internal/dependencies/random"
	"github.com/kwhittier/lobbyhub/internal/lifecycle"
	"github.com/kwhittier/lobbyhub/internal/model"
	"github.com/kwhittier/lobbyhub/internal/transport"
)

// GeneralRoomName is the always-available room every client may talk in.
const GeneralRoomName = "general"

// Events a room sends to its members.
const (
	EventName    = "name"
	EventUsers   = "users"
	EventMessage = "message"
)

type member struct {
	conn transport.Conn
	name string
}

// Room is a named chat channel. Temporary rooms close themselves once their
// last member leaves, or after an initial timeout if nobody ever joined.
// The general room is permanent.
type Room struct {
	name         string
	temporary    bool
	emptyTimeout time.Duration
	clock        clock.Clock
	random       random.Random
	channels     transport.Channels
	logger       *slog.Logger

	// Closing fires once, with the room name, when the room shuts down.
	Closing lifecycle.Hook[string]

	mu            sync.Mutex
	members       []member
	nextMessageID int
	closed        bool
}

// RoomConfig configures a single chat room.
type RoomConfig struct {
	Name      string
	Temporary bool
	// EmptyTimeout closes a temporary room that was created but never
	// joined. Ignored for permanent rooms.
	EmptyTimeout time.Duration
}

// NewRoom creates a room. Temporary rooms start their empty-room countdown
// immediately.
func NewRoom(cfg RoomConfig, channels transport.Channels, clk clock.Clock, rnd random.Random, logger *slog.Logger) *Room {
	r := &Room{
		name:         cfg.Name,
		temporary:    cfg.Temporary,
		emptyTimeout: cfg.EmptyTimeout,
		clock:        clk,
		random:       rnd,
		channels:     channels,
		logger:       logger.With(slog.String("component", "chat-room"), slog.String("room", cfg.Name)),
	}
	if cfg.Temporary {
		clk.AfterFunc(cfg.EmptyTimeout, func() {
			r.mu.Lock()
			empty := len(r.members) == 0 && !r.closed
			r.mu.Unlock()
			if empty {
				r.logger.Info("closing never-joined room")
				r.Close()
			}
		})
	}
	return r
}

// Name returns the room name.
func (r *Room) Name() string {
	return r.name
}

// Temporary reports whether the room closes itself when empty.
func (r *Room) Temporary() bool {
	return r.temporary
}

// Channel is the transport channel the room broadcasts on.
func (r *Room) Channel() string {
	return "chat/" + r.name
}

// Join admits a connection under the requested display name. A taken name is
// replaced with a generated one. The joiner is told its final name and the
// current user list; everyone else gets the updated user list. Joining twice
// is a no-op.
func (r *Room) Join(conn transport.Conn, requestedName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return model.ErrRoomClosed
	}
	if r.indexOf(conn) >= 0 {
		return nil
	}

	name := requestedName
	if name == "" || r.nameTaken(name) {
		name = RandomName(r.random)
	}
	r.admit(conn, name)
	return nil
}

// Leave removes a connection from the room and tells the remaining members.
// The last member leaving a temporary room closes it.
func (r *Room) Leave(conn transport.Conn) {
	r.mu.Lock()
	i := r.indexOf(conn)
	if i < 0 {
		r.mu.Unlock()
		return
	}
	name := r.members[i].name
	r.members = append(r.members[:i], r.members[i+1:]...)
	r.channels.Leave(r.Channel(), conn)
	r.channels.BroadcastExcept(r.Channel(), conn, EventUsers, r.userList())
	empty := len(r.members) == 0
	r.mu.Unlock()

	r.logger.Info("user left", slog.String("user", name))
	if empty && r.temporary {
		r.Close()
	}
}

// Message broadcasts a chat message to every member except the sender. A
// sender who never joined is admitted first under a generated name.
func (r *Room) Message(conn transport.Conn, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return model.ErrRoomClosed
	}
	i := r.indexOf(conn)
	if i < 0 {
		r.admit(conn, RandomName(r.random))
		i = r.indexOf(conn)
	}

	msg := model.ChatMessage{
		Message: text,
		User:    r.members[i].name,
		Time:    r.clock.Now().UnixMilli(),
		ID:      r.nextMessageID,
	}
	r.nextMessageID++
	r.channels.BroadcastExcept(r.Channel(), conn, EventMessage, msg)
	return nil
}

// Disconnect handles a member's connection going away.
func (r *Room) Disconnect(conn transport.Conn) {
	r.Leave(conn)
}

// Close shuts the room down and fires Closing once.
func (r *Room) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	for _, m := range r.members {
		r.channels.Leave(r.Channel(), m.conn)
	}
	r.members = nil
	r.mu.Unlock()

	r.logger.Info("room closed")
	r.Closing.Emit(r.name)
}

// Users returns the current member list in join order.
func (r *Room) Users() []model.ChatUser {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userList()
}

// UserCount reports the number of members.
func (r *Room) UserCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// admit adds the member and sends the join notifications. The caller holds
// the lock. The user list sent to the joiner is the pre-join snapshot; the
// broadcast to the rest includes the joiner.
func (r *Room) admit(conn transport.Conn, name string) {
	r.channels.Join(r.Channel(), conn)
	if err := conn.Send(EventName, name); err != nil {
		r.logger.Warn("send name failed", slog.String("error", err.Error()))
	}
	if err := conn.Send(EventUsers, r.userList()); err != nil {
		r.logger.Warn("send users failed", slog.String("error", err.Error()))
	}
	r.members = append(r.members, member{conn: conn, name: name})
	r.channels.BroadcastExcept(r.Channel(), conn, EventUsers, r.userList())
	r.logger.Info("user joined", slog.String("user", name))
}

func (r *Room) indexOf(conn transport.Conn) int {
	for i, m := range r.members {
		if m.conn.ID() == conn.ID() {
			return i
		}
	}
	return -1
}

func (r *Room) nameTaken(name string) bool {
	for _, m := range r.members {
		if m.name == name {
			return true
		}
	}
	return false
}

func (r *Room) userList() []model.ChatUser {
	users := make([]model.ChatUser, 0, len(r.members))
	for _, m := range r.members {
		users = append(users, model.ChatUser{Name: m.name, ID: m.name})
	}
	return users
}
