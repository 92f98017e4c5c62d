package handler

import (
	"log/slog"

	"github.com/kwhittier/lobbyhub/internal/dispatch"
	"github.com/kwhittier/lobbyhub/internal/model"
	"github.com/kwhittier/lobbyhub/internal/services/lobby"
	"github.com/kwhittier/lobbyhub/internal/socket/request"
	"github.com/kwhittier/lobbyhub/internal/socket/response"
	"github.com/kwhittier/lobbyhub/internal/transport"
)

// Registrar is where handler sets are registered for frame routing.
type Registrar interface {
	Register(hs *dispatch.HandlerSet)
	Unregister(prefix string)
}

// Events broadcast on a lobby's channel.
const (
	EventPlayerChanged = "playerChanged"
	EventHostChanged   = "hostChanged"
	EventLobbyClosed   = "closed"
)

// LobbyHandler exposes the lobby registry over socket events. The top-level
// "lobby" namespace creates, joins and inspects lobbies; each live lobby gets
// its own "lobby/<id>" namespace for members.
type LobbyHandler struct {
	registry  *lobby.Registry
	channels  transport.Channels
	registrar Registrar
	logger    *slog.Logger
}

// NewLobbyHandler creates the handler. Call Register to start serving events.
func NewLobbyHandler(registry *lobby.Registry, channels transport.Channels, registrar Registrar, logger *slog.Logger) *LobbyHandler {
	return &LobbyHandler{
		registry:  registry,
		channels:  channels,
		registrar: registrar,
		logger:    logger.With(slog.String("component", "lobby-handler")),
	}
}

// Register binds the top-level lobby namespace and arranges for every lobby
// the registry creates to get its own namespace.
func (h *LobbyHandler) Register() {
	h.registry.Created.Subscribe(h.bindLobby)

	hs := dispatch.NewHandlerSet("lobby", h.channels, h.logger, dispatch.Options{
		Mapper: MapError,
	})

	dispatch.On(hs, "create", func(ctx dispatch.Context, req request.CreateLobby) (any, error) {
		lb, err := h.registry.Create(model.LobbySettings{
			MaxPlayers: req.MaxPlayers,
			IsPrivate:  req.IsPrivate,
			Password:   req.Password,
		})
		if err != nil {
			return nil, err
		}
		return response.CreatedLobby{LobbyID: lb.ID()}, nil
	})

	dispatch.On(hs, "join", func(ctx dispatch.Context, req request.JoinLobby) (any, error) {
		auth, err := h.registry.Join(model.LobbyID(req.LobbyID), ctx.Conn, req.Username, req.Password)
		if err != nil {
			return nil, err
		}
		return auth, nil
	})

	dispatch.On(hs, "get", func(ctx dispatch.Context, req request.GetLobby) (any, error) {
		return h.registry.Get(model.LobbyID(req.LobbyID))
	})

	h.registrar.Register(hs)
}

// bindLobby gives one lobby its own namespace and forwards its lifecycle
// events to the lobby's channel.
func (h *LobbyHandler) bindLobby(lb *lobby.Lobby) {
	prefix := lb.Channel()

	lb.Lifecycle.PlayerChanged.Subscribe(func(ev model.PlayerChangedEvent) {
		h.channels.Broadcast(prefix, EventPlayerChanged, response.PlayerChanged{
			Player:  response.FromPlayer(ev.Player),
			Players: response.FromPlayers(ev.Players),
			Joined:  ev.Joined,
		})
	})
	lb.Lifecycle.HostChanged.Subscribe(func(ev model.HostChangedEvent) {
		h.channels.Broadcast(prefix, EventHostChanged, response.HostChanged{
			Player: response.FromPlayer(ev.Player),
		})
	})
	lb.Lifecycle.Stopped.Subscribe(func(id model.LobbyID) {
		h.channels.Broadcast(prefix, EventLobbyClosed, nil)
		h.registrar.Unregister(prefix)
	})

	hs := dispatch.NewHandlerSet(prefix, h.channels, h.logger, dispatch.Options{
		Mapper: MapError,
		// A dropped physical connection is not a departure yet; the member
		// keeps their seat for the grace window.
		OnDisconnect: func(conn transport.Conn) {
			if p := lb.PlayerByConn(conn); p != nil {
				lb.WaitForReconnect(p)
			}
		},
	})

	dispatch.On(hs, "reconnect", func(ctx dispatch.Context, req request.Reconnect) (any, error) {
		p, err := lb.TryReconnect(ctx.Conn, req.SessionToken)
		if err != nil {
			return nil, err
		}
		return model.PlayerAuth{Username: p.Username, SessionToken: p.SessionToken}, nil
	})

	dispatch.On(hs, "leave", func(ctx dispatch.Context, _ request.LeaveLobby) (any, error) {
		lb.Leave(ctx.Conn)
		return nil, nil
	})

	dispatch.On(hs, "kick", func(ctx dispatch.Context, req request.KickPlayer) (any, error) {
		if !lb.IsHost(ctx.Conn) {
			return nil, model.ErrNotHost
		}
		return nil, lb.Kick(req.Username)
	})

	h.registrar.Register(hs)
}
