package socket

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/kwhittier/lobbyhub/internal/middleware"
)

// RouterConfig holds configuration for the socket router
type RouterConfig struct {
	Logger  *slog.Logger
	Gateway *Gateway

	// CheckOrigin overrides the websocket origin check. Nil allows all
	// origins; the clients are browser pages served from anywhere.
	CheckOrigin func(r *http.Request) bool
}

// NewRouter creates the HTTP surface: the websocket endpoint and a health
// check.
func NewRouter(cfg RouterConfig) http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     cfg.CheckOrigin,
	}
	if upgrader.CheckOrigin == nil {
		upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}

	r := mux.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler))
	r.Use(middleware.Logging(cfg.Logger))

	r.HandleFunc("/ws", serveWS(upgrader, cfg.Gateway, cfg.Logger)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)

	return r
}

// serveWS upgrades the request and runs the connection's pumps. The read
// pump owns the request goroutine; the write pump gets its own.
func serveWS(upgrader websocket.Upgrader, gateway *Gateway, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
			return
		}

		conn := newWSConn(ws, r, logger)
		logger.Info("client connected", slog.String("conn", conn.ID()))

		go conn.writePump()
		conn.readPump(gateway)

		logger.Info("client disconnected", slog.String("conn", conn.ID()))
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
