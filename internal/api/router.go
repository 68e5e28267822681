package api

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"github.com/mcoot/wordduel/internal/api/apierr"
	"github.com/mcoot/wordduel/internal/api/handler"
	"github.com/mcoot/wordduel/internal/api/response"
	"github.com/mcoot/wordduel/internal/middleware"
	"github.com/mcoot/wordduel/internal/services/room"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger    *slog.Logger
	Rooms     room.StoreInterface
	WebSocket http.Handler
	// StaticDir holds the browser client; nothing is served when empty
	StaticDir string
	PublicURL string
}

// NewRouter creates a new router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(cfg.Rooms, cfg.PublicURL, cfg.Logger)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, apiPanicHandler)

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/rooms", roomHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}", roomHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}/qr.png", roomHandler.QRCode).Methods(http.MethodGet)
	api.NotFoundHandler = http.HandlerFunc(notFoundHandler)

	if cfg.WebSocket != nil {
		r.Handle("/ws", cfg.WebSocket).Methods(http.MethodGet)
	}

	if cfg.StaticDir != "" {
		index := filepath.Join(cfg.StaticDir, "index.html")
		r.HandleFunc("/room/{id}", func(w http.ResponseWriter, req *http.Request) {
			http.ServeFile(w, req, index)
		}).Methods(http.MethodGet)
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.StaticDir))).Methods(http.MethodGet)
	}

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	apierr.WriteError(w, apierr.NewNotFoundError())
}

func apiPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
