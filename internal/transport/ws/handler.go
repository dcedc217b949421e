// Package ws carries session events over gorilla/websocket connections
package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/liveclass/internal/dependencies/random"
	"github.com/mcoot/liveclass/internal/model"
	"github.com/mcoot/liveclass/internal/session"
)

// Coordinator is the part of the session loop the transport talks to
type Coordinator interface {
	Connect(conn session.Conn) error
	Disconnect(id model.ConnectionID) error
	Deliver(id model.ConnectionID, frame []byte) error
}

// Config holds websocket transport settings
type Config struct {
	MaxMessageBytes int64
	SendBuffer      int
	AllowedOrigins  []string
	WriteWait       time.Duration
	PongWait        time.Duration
	PingInterval    time.Duration
}

// DefaultConfig returns the default transport configuration
func DefaultConfig() Config {
	return Config{
		MaxMessageBytes: 64 * 1024,
		SendBuffer:      256,
		WriteWait:       10 * time.Second,
		PongWait:        60 * time.Second,
		PingInterval:    54 * time.Second,
	}
}

// Handler upgrades HTTP requests and attaches each socket to the coordinator
type Handler struct {
	coordinator Coordinator
	random      random.Random
	config      Config
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

// NewHandler creates a websocket Handler
func NewHandler(coordinator Coordinator, random random.Random, config Config, logger *slog.Logger) *Handler {
	defaults := DefaultConfig()
	if config.MaxMessageBytes <= 0 {
		config.MaxMessageBytes = defaults.MaxMessageBytes
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = defaults.SendBuffer
	}
	if config.WriteWait <= 0 {
		config.WriteWait = defaults.WriteWait
	}
	if config.PongWait <= 0 {
		config.PongWait = defaults.PongWait
	}
	if config.PingInterval <= 0 || config.PingInterval >= config.PongWait {
		config.PingInterval = config.PongWait * 9 / 10
	}

	h := &Handler{
		coordinator: coordinator,
		random:      random,
		config:      config,
		logger:      logger.With(slog.String("component", "ws")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(config.AllowedOrigins, r.Header.Get("Origin"))
		},
	}
	return h
}

// ServeHTTP upgrades the request and runs the connection pumps
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.Warn("websocket upgrade failed",
			slog.String("origin", r.Header.Get("Origin")),
			slog.String("error", err.Error()))
		return
	}

	id := model.ConnectionID(h.random.NewID())
	client := newClient(id, conn, h.config, h.logger)

	if err := h.coordinator.Connect(client); err != nil {
		h.logger.Warn("session unavailable, closing websocket", slog.String("error", err.Error()))
		msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "session unavailable")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.config.WriteWait))
		_ = conn.Close()
		return
	}

	h.logger.Info("websocket connected",
		slog.String("connection_id", string(id)),
		slog.String("remote_addr", r.RemoteAddr))

	go client.writePump()
	client.readPump(h.coordinator)
}
