package lobby

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kwhittier/lobbyhub/internal/dependencies/clock"
	"github.com/kwhittier/lobbyhub/internal/dependencies/random"
	"github.com/kwhittier/lobbyhub/internal/lifecycle"
	"github.com/kwhittier/lobbyhub/internal/model"
	"github.com/kwhittier/lobbyhub/internal/transport"
)

const (
	// LobbyIDLength is the length of generated lobby ids
	LobbyIDLength = 10
	// LobbyIDAlphabet is the characters used in lobby ids (avoid confusing chars)
	LobbyIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// RegistryConfig holds the room lifetime knobs shared by all lobbies.
type RegistryConfig struct {
	// IdleTimeout retires a lobby after that long without meaningful activity.
	IdleTimeout time.Duration
	// GraceWindow is how long a disconnected player may reconnect before the
	// disconnect is confirmed.
	GraceWindow time.Duration
}

// DefaultRegistryConfig returns the default room lifetime configuration.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		IdleTimeout: 5 * time.Minute,
		GraceWindow: 30 * time.Second,
	}
}

// Registry creates lobbies with generated ids, indexes them, and retires them
// when their inactivity timer fires or they are stopped explicitly.
type Registry struct {
	channels transport.Channels
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger
	cfg      RegistryConfig

	// Created fires for every new lobby, after it is indexed and before its
	// idle countdown starts; the socket layer uses it to bind per-lobby
	// event handlers.
	Created lifecycle.Hook[*Lobby]

	mu      sync.RWMutex
	lobbies map[model.LobbyID]*Lobby
}

// NewRegistry creates an empty lobby registry.
func NewRegistry(channels transport.Channels, clk clock.Clock, rnd random.Random, logger *slog.Logger, cfg RegistryConfig) *Registry {
	return &Registry{
		channels: channels,
		clock:    clk,
		random:   rnd,
		logger:   logger.With(slog.String("component", "lobby-registry")),
		cfg:      cfg,
		lobbies:  make(map[model.LobbyID]*Lobby),
	}
}

// Create validates settings, builds a lobby, wires its idle-timeout to Stop
// and Stop to deregistration, and starts its idle countdown.
func (r *Registry) Create(settings model.LobbySettings) (*Lobby, error) {
	if settings.IsPrivate && settings.Password == "" {
		return nil, model.ErrPasswordRequired
	}

	var passwordHash []byte
	if settings.IsPrivate {
		hash, err := bcrypt.GenerateFromPassword([]byte(settings.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		passwordHash = hash
	}
	settings.Password = ""

	lb := New(Config{
		ID:           r.generateID(),
		Settings:     settings,
		PasswordHash: passwordHash,
		Secret:       uuid.NewString(),
		IdleTimeout:  r.cfg.IdleTimeout,
		GraceWindow:  r.cfg.GraceWindow,
	}, r.channels, r.clock, r.logger)

	lb.Timer().OnTimeout(func() {
		r.logger.Info("lobby idle timeout", slog.String("lobby", string(lb.ID())))
		lb.Stop()
	})
	lb.Lifecycle.Stopped.Subscribe(func(id model.LobbyID) {
		r.mu.Lock()
		delete(r.lobbies, id)
		r.mu.Unlock()
	})

	r.mu.Lock()
	r.lobbies[lb.ID()] = lb
	r.mu.Unlock()

	r.logger.Info("lobby created",
		slog.String("lobby", string(lb.ID())),
		slog.Int("maxPlayers", settings.MaxPlayers),
		slog.Bool("private", settings.IsPrivate))

	r.Created.Emit(lb)
	lb.Timer().Reset()
	return lb, nil
}

// Join routes a top-level join request to the addressed lobby.
func (r *Registry) Join(id model.LobbyID, conn transport.Conn, username, password string) (model.PlayerAuth, error) {
	lb, ok := r.Lookup(id)
	if !ok {
		return model.PlayerAuth{}, model.ErrLobbyNotFound
	}
	return lb.TryJoin(conn, username, password)
}

// Get returns the publicly queryable info for a lobby.
func (r *Registry) Get(id model.LobbyID) (model.LobbyInfo, error) {
	lb, ok := r.Lookup(id)
	if !ok {
		return model.LobbyInfo{}, model.ErrLobbyNotFound
	}
	return model.LobbyInfo{IsPrivate: lb.Settings().IsPrivate}, nil
}

// Lookup finds a lobby by id.
func (r *Registry) Lookup(id model.LobbyID) (*Lobby, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lb, ok := r.lobbies[id]
	return lb, ok
}

// Len reports the number of live lobbies.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lobbies)
}

// StopAll stops every live lobby; used on server shutdown.
func (r *Registry) StopAll() {
	r.mu.RLock()
	lobbies := make([]*Lobby, 0, len(r.lobbies))
	for _, lb := range r.lobbies {
		lobbies = append(lobbies, lb)
	}
	r.mu.RUnlock()

	for _, lb := range lobbies {
		lb.Stop()
	}
}

// generateID draws ids until one is unused. Collisions are vanishingly rare
// at this length but ids are client-visible, so be certain.
func (r *Registry) generateID() model.LobbyID {
	for {
		id := model.LobbyID(r.random.String(LobbyIDLength, LobbyIDAlphabet))
		r.mu.RLock()
		_, taken := r.lobbies[id]
		r.mu.RUnlock()
		if !taken {
			return id
		}
	}
}
