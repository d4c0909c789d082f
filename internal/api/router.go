package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/codebreak-go/internal/api/handler"
	"github.com/mcoot/codebreak-go/internal/middleware"
	"github.com/mcoot/codebreak-go/internal/registry"
	"github.com/mcoot/codebreak-go/internal/stats"
)

// RouterConfig holds configuration for the HTTP router
type RouterConfig struct {
	Logger   *slog.Logger
	WS       http.Handler
	Stats    stats.Store
	Registry *registry.Registry
}

// NewRouter creates the HTTP router. Gameplay happens entirely over
// the websocket endpoint; the rest is health, the leaderboard, and
// room sharing.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	statsHandler := handler.NewStatsHandler(cfg.Stats)
	roomHandler := handler.NewRoomHandler(cfg.Registry)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler)

	// The websocket endpoint is mounted raw: the logging wrapper's
	// ResponseWriter does not support hijacking, which the upgrade needs
	r.Handle("/ws", cfg.WS).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", statsHandler.Leaderboard).Methods(http.MethodGet)

	rooms := r.PathPrefix("/rooms").Subrouter()
	rooms.Use(recoveryMiddleware)
	rooms.Use(loggingMiddleware)
	rooms.HandleFunc("/{id}/qr", roomHandler.QR).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
