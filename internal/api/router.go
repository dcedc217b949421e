package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pion/webrtc/v4"

	"github.com/mcoot/liveclass/internal/api/handler"
	"github.com/mcoot/liveclass/internal/api/middleware"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Evicter     handler.Evicter
	Snapshotter handler.Snapshotter
	Verifier    middleware.Verifier
	ICEServers  []webrtc.ICEServer
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	adminHandler := handler.NewAdminHandler(cfg.Evicter, cfg.Snapshotter)
	iceHandler := handler.NewICEHandler(cfg.ICEServers)

	// Create middleware
	adminMiddleware := middleware.AdminSecret(cfg.Verifier)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Public routes
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/ice-servers", iceHandler.List).Methods(http.MethodGet)

	// Eviction verifies the secret itself so it can accept it in the body
	api.HandleFunc("/admin/evict", adminHandler.Evict).Methods(http.MethodPost)

	// Remaining admin routes require the secret header
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(adminMiddleware)
	admin.HandleFunc("/roster", adminHandler.Roster).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
