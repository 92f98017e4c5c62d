package handler

import (
	"log/slog"

	"github.com/kwhittier/lobbyhub/internal/dispatch"
	"github.com/kwhittier/lobbyhub/internal/services/chat"
	"github.com/kwhittier/lobbyhub/internal/socket/request"
	"github.com/kwhittier/lobbyhub/internal/transport"
)

// ChatHandler exposes the chat registry over socket events. The "chatRoom"
// namespace creates and lists rooms; every room, the general room included,
// gets its own "chat/<room>" namespace.
type ChatHandler struct {
	registry  *chat.Registry
	channels  transport.Channels
	registrar Registrar
	logger    *slog.Logger
}

// NewChatHandler creates the handler. Call Register to start serving events.
func NewChatHandler(registry *chat.Registry, channels transport.Channels, registrar Registrar, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		registry:  registry,
		channels:  channels,
		registrar: registrar,
		logger:    logger.With(slog.String("component", "chat-handler")),
	}
}

// Register binds the room-management namespace and the general room, and
// arranges for created rooms to get their own namespaces.
func (h *ChatHandler) Register() {
	h.registry.Created.Subscribe(h.bindRoom)
	h.bindRoom(h.registry.General())

	hs := dispatch.NewHandlerSet("chatRoom", h.channels, h.logger, dispatch.Options{
		Mapper: MapError,
	})

	dispatch.On(hs, "create", func(ctx dispatch.Context, req request.CreateRoom) (any, error) {
		h.registry.Create(req.Name)
		return nil, nil
	})

	dispatch.On(hs, "getRooms", func(ctx dispatch.Context, _ request.GetRooms) (any, error) {
		h.registry.WatchRooms(ctx.Conn)
		return h.registry.RoomNames(), nil
	})

	h.registrar.Register(hs)
}

func (h *ChatHandler) bindRoom(room *chat.Room) {
	prefix := room.Channel()

	hs := dispatch.NewHandlerSet(prefix, h.channels, h.logger, dispatch.Options{
		Mapper:       MapError,
		OnDisconnect: room.Disconnect,
	})

	dispatch.On(hs, "join", func(ctx dispatch.Context, req request.JoinChat) (any, error) {
		return nil, room.Join(ctx.Conn, req.Name)
	})

	dispatch.On(hs, "leave", func(ctx dispatch.Context, _ request.LeaveChat) (any, error) {
		room.Leave(ctx.Conn)
		return nil, nil
	})

	dispatch.On(hs, "message", func(ctx dispatch.Context, req request.ChatMessage) (any, error) {
		return nil, room.Message(ctx.Conn, req.Message)
	})

	room.Closing.Subscribe(func(string) {
		h.registrar.Unregister(prefix)
	})

	h.registrar.Register(hs)
}
