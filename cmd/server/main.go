package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/kwhittier/lobbyhub/internal/factory"
	"github.com/kwhittier/lobbyhub/internal/services/chat"
	"github.com/kwhittier/lobbyhub/internal/services/lobby"
	"github.com/kwhittier/lobbyhub/internal/socket"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Build factory config from environment
	lobbyCfg := lobby.DefaultRegistryConfig()
	if d := envDuration(logger, "LOBBY_IDLE_TIMEOUT"); d > 0 {
		lobbyCfg.IdleTimeout = d
	}
	if d := envDuration(logger, "LOBBY_GRACE_WINDOW"); d > 0 {
		lobbyCfg.GraceWindow = d
	}
	chatCfg := chat.DefaultRegistryConfig()
	if d := envDuration(logger, "CHAT_EMPTY_TIMEOUT"); d > 0 {
		chatCfg.EmptyTimeout = d
	}

	// Create application factory
	app := factory.New(factory.Config{
		Logger:      logger,
		LobbyConfig: lobbyCfg,
		ChatConfig:  chatCfg,
	})

	// Create router and server
	router := socket.NewRouter(socket.RouterConfig{
		Logger:  logger,
		Gateway: app.Gateway,
	})

	serverConfig := socket.DefaultServerConfig()
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil && port > 0 {
		serverConfig.Port = port
	}
	server := socket.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		app.Shutdown()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// envDuration reads a duration from the environment, logging bad values
func envDuration(logger *slog.Logger, key string) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		logger.Warn("ignoring invalid duration",
			slog.String("key", key),
			slog.String("value", val))
		return 0
	}
	return d
}
