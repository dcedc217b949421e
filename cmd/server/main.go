package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mcoot/liveclass/internal/api"
	"github.com/mcoot/liveclass/internal/config"
	"github.com/mcoot/liveclass/internal/factory"
	"github.com/mcoot/liveclass/internal/middleware"
	"github.com/mcoot/liveclass/internal/web"
)

func main() {
	// Load configuration before logging so LOG_LEVEL applies
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}

	iceServers, err := cfg.ICEServers()
	if err != nil {
		logger.Error("invalid ICE server configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create application factory
	app, err := factory.New(factory.Config{
		Session:    cfg.Session(),
		InboxSize:  cfg.InboxSize,
		AuthConfig: cfg.Auth(),
		WS:         cfg.WS(),
		EvictBus:   cfg.EvictBus(),
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

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

	// The coordinator owns all session state
	sessionCtx, stopSession := context.WithCancel(context.Background())
	defer stopSession()
	go app.Coordinator.Run(sessionCtx)

	if app.EvictBus != nil {
		go func() {
			if err := app.EvictBus.Run(ctx); err != nil {
				logger.Error("eviction subscriber stopped", slog.String("error", err.Error()))
			}
		}()
	}

	// Create API router
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Evicter:     app.EvictionService,
		Snapshotter: app.Coordinator,
		Verifier:    app.AuthService,
		ICEServers:  iceServers,
	})

	// Create web router
	webRouter := web.NewRouter(web.RouterConfig{
		Logger:      logger,
		Snapshotter: app.Coordinator,
		StaticDir:   findStaticDir(),
	})

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle("/ws", middleware.Logging(logger)(app.WSHandler))
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(mux, serverConfig, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	// Hijacked websockets outlive server.Shutdown; the coordinator closes them
	stopSession()
	<-app.Coordinator.Done()
	if app.EvictBus != nil {
		_ = app.EvictBus.Close()
	}

	logger.Info("server stopped")
	os.Exit(exitCode)
}

// findStaticDir looks for the browser client directory
func findStaticDir() string {
	// Try common locations
	candidates := []string{
		"public",
		"./internal/web/static",
		filepath.Join(os.Getenv("PWD"), "public"),
	}

	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}

	return ""
}
