package factory

import (
	"io"
	"log/slog"

	"github.com/kwhittier/lobbyhub/internal/dependencies/clock"
	"github.com/kwhittier/lobbyhub/internal/dependencies/random"
	"github.com/kwhittier/lobbyhub/internal/services/chat"
	"github.com/kwhittier/lobbyhub/internal/services/lobby"
	"github.com/kwhittier/lobbyhub/internal/socket"
	"github.com/kwhittier/lobbyhub/internal/socket/handler"
	"github.com/kwhittier/lobbyhub/internal/transport"
)

// App contains all wired application components
type App struct {
	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Transport
	Channels *transport.ChannelSet
	Gateway  *socket.Gateway

	// Services
	LobbyRegistry *lobby.Registry
	ChatRegistry  *chat.Registry
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// LobbyConfig holds lobby lifetime settings (optional)
	// If zero value, defaults to lobby.DefaultRegistryConfig()
	LobbyConfig lobby.RegistryConfig
	// ChatConfig holds chat room lifetime settings (optional)
	// If zero value, defaults to chat.DefaultRegistryConfig()
	ChatConfig chat.RegistryConfig
}

// New creates a new application with all dependencies wired and the lobby and
// chat namespaces registered on the gateway
func New(cfg Config) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	lobbyCfg := cfg.LobbyConfig
	if lobbyCfg.IdleTimeout == 0 {
		lobbyCfg = lobby.DefaultRegistryConfig()
	}
	chatCfg := cfg.ChatConfig
	if chatCfg.EmptyTimeout == 0 {
		chatCfg = chat.DefaultRegistryConfig()
	}

	return newWithDependencies(clock.New(), random.New(), lobbyCfg, chatCfg, logger)
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(clk clock.Clock, rnd random.Random, lobbyCfg lobby.RegistryConfig, chatCfg chat.RegistryConfig, logger *slog.Logger) *App {
	channels := transport.NewChannelSet(logger)
	gateway := socket.NewGateway(channels, logger)

	lobbyRegistry := lobby.NewRegistry(channels, clk, rnd, logger, lobbyCfg)
	chatRegistry := chat.NewRegistry(channels, clk, rnd, logger, chatCfg)

	handler.NewLobbyHandler(lobbyRegistry, channels, gateway, logger).Register()
	handler.NewChatHandler(chatRegistry, channels, gateway, logger).Register()

	return &App{
		Clock:         clk,
		Random:        rnd,
		Channels:      channels,
		Gateway:       gateway,
		LobbyRegistry: lobbyRegistry,
		ChatRegistry:  chatRegistry,
	}
}

// Shutdown stops every live lobby. Chat rooms need no teardown; their state
// dies with the process.
func (a *App) Shutdown() {
	a.LobbyRegistry.StopAll()
}
