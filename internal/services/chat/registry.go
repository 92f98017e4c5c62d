package chat

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/kwhittier/lobbyhub/internal/dependencies/clock"
	"github.com/kwhittier/lobbyhub/internal/dependencies/random"
	"github.com/kwhittier/lobbyhub/internal/lifecycle"
	"github.com/kwhittier/lobbyhub/internal/model"
	"github.com/kwhittier/lobbyhub/internal/transport"
)

// RoomsChannel is the transport channel room-list updates broadcast on.
// Clients subscribe to it by asking for the room list.
const RoomsChannel = "chatRoom"

// EventRooms carries the current list of created room names.
const EventRooms = "rooms"

// RegistryConfig holds the chat room lifetime knobs.
type RegistryConfig struct {
	// EmptyTimeout closes a created room nobody ever joined.
	EmptyTimeout time.Duration
}

// DefaultRegistryConfig returns the default chat configuration.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{EmptyTimeout: time.Minute}
}

// Registry owns the permanent general room and the user-created temporary
// rooms, and pushes room-list updates to subscribed connections.
type Registry struct {
	channels transport.Channels
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger
	cfg      RegistryConfig

	// Created fires for every genuinely new room, after it is indexed and
	// before the room list is broadcast; the socket layer uses it to bind
	// per-room event handlers.
	Created lifecycle.Hook[*Room]

	general *Room

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry creates a registry with the general room already open.
func NewRegistry(channels transport.Channels, clk clock.Clock, rnd random.Random, logger *slog.Logger, cfg RegistryConfig) *Registry {
	r := &Registry{
		channels: channels,
		clock:    clk,
		random:   rnd,
		logger:   logger.With(slog.String("component", "chat-registry")),
		cfg:      cfg,
		rooms:    make(map[string]*Room),
	}
	r.general = NewRoom(RoomConfig{Name: GeneralRoomName}, channels, clk, rnd, logger)
	return r
}

// General returns the permanent room.
func (r *Registry) General() *Room {
	return r.general
}

// Create opens a temporary room with the given name. Creating a room that
// already exists returns the existing room; the room list is only broadcast
// when a room was actually created.
func (r *Registry) Create(name string) *Room {
	if name == GeneralRoomName {
		return r.general
	}

	r.mu.Lock()
	if existing, ok := r.rooms[name]; ok {
		r.mu.Unlock()
		return existing
	}
	room := NewRoom(RoomConfig{
		Name:         name,
		Temporary:    true,
		EmptyTimeout: r.cfg.EmptyTimeout,
	}, r.channels, r.clock, r.random, r.logger)
	r.rooms[name] = room
	r.mu.Unlock()

	room.Closing.Subscribe(func(closed string) {
		r.mu.Lock()
		delete(r.rooms, closed)
		r.mu.Unlock()
		r.broadcastRooms()
	})

	r.logger.Info("room created", slog.String("room", name))
	r.Created.Emit(room)
	r.broadcastRooms()
	return room
}

// Room finds a room by name, the general room included.
func (r *Registry) Room(name string) (*Room, error) {
	if name == GeneralRoomName {
		return r.general, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[name]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room, nil
}

// RoomNames lists the created rooms, sorted. The general room is implicit
// and not listed.
func (r *Registry) RoomNames() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.rooms))
	for name := range r.rooms {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// WatchRooms sends the current room list to the connection and subscribes it
// to future updates.
func (r *Registry) WatchRooms(conn transport.Conn) {
	if err := conn.Send(EventRooms, r.RoomNames()); err != nil {
		r.logger.Warn("send rooms failed", slog.String("error", err.Error()))
	}
	r.channels.Join(RoomsChannel, conn)
}

func (r *Registry) broadcastRooms() {
	r.channels.Broadcast(RoomsChannel, EventRooms, r.RoomNames())
}
