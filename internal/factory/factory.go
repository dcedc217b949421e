package factory

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/liveclass/internal/dependencies/clock"
	"github.com/mcoot/liveclass/internal/dependencies/random"
	"github.com/mcoot/liveclass/internal/evictbus"
	"github.com/mcoot/liveclass/internal/services/auth"
	"github.com/mcoot/liveclass/internal/services/eviction"
	"github.com/mcoot/liveclass/internal/session"
	"github.com/mcoot/liveclass/internal/transport/ws"
)

// App contains all wired application components
type App struct {
	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Session
	Coordinator *session.Coordinator

	// Services
	AuthService     *auth.Service
	EvictionService *eviction.Service

	// Transports
	WSHandler *ws.Handler
	// EvictBus is nil unless Config.EvictBus is set
	EvictBus *evictbus.Subscriber
}

// Config holds configuration for the application factory
type Config struct {
	// Session holds session tunables (optional)
	// Zero fields fall back to session.DefaultConfig()
	Session session.Config
	// InboxSize bounds the coordinator's event queue (optional)
	InboxSize int
	// AuthConfig holds the admin secret (optional)
	// If zero value, admin actions are disabled
	AuthConfig auth.Config
	// WS holds websocket transport settings (optional)
	WS ws.Config
	// EvictBus enables the Redis eviction subscriber when set
	EvictBus *evictbus.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	authService, err := auth.New(cfg.AuthConfig)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	app := newWithDependencies(clk, rnd, authService, cfg, logger)

	if cfg.EvictBus != nil {
		sub, err := evictbus.New(*cfg.EvictBus, app.EvictionService, logger)
		if err != nil {
			return nil, fmt.Errorf("evictbus: %w", err)
		}
		app.EvictBus = sub
	}

	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(clk clock.Clock, rnd random.Random, authService *auth.Service, cfg Config, logger *slog.Logger) *App {
	coordinator := session.NewCoordinator(cfg.Session, clk, cfg.InboxSize, logger)
	evictionService := eviction.New(coordinator, authService, logger)
	wsHandler := ws.NewHandler(coordinator, rnd, cfg.WS, logger)

	return &App{
		Clock:           clk,
		Random:          rnd,
		Coordinator:     coordinator,
		AuthService:     authService,
		EvictionService: evictionService,
		WSHandler:       wsHandler,
	}
}
