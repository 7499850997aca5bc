package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"pharmacy-dashboard/internal/config"
	"pharmacy-dashboard/internal/observability"
	"pharmacy-dashboard/internal/server"
	"pharmacy-dashboard/internal/services"
	"pharmacy-dashboard/internal/session"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting application",
		"version", version,
		"addr", cfg.Address(),
		"upload_limit", cfg.Upload.MaxBytes,
		"session_ttl", cfg.Session.TTL,
		"log_level", cfg.Logger.Level,
	)

	shutdownTracing, err := observability.InitTracing(cfg.Tracing, logger)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	sessions := newSessionStore(cfg, metrics, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := sessions.Start(ctx); err != nil {
		return err
	}

	dashboard := services.NewDashboard(logger, metrics)
	srv := server.NewServer(cfg, dashboard, sessions, metrics, logger)

	gracefulServer := server.NewGracefulServer(newHTTPServer(cfg, srv), logger, cfg)
	gracefulServer.RegisterShutdownHook("tracing", shutdownTracing)
	gracefulServer.RegisterShutdownHook("sessions", func(context.Context) error {
		sessions.Stop()
		return nil
	})

	return gracefulServer.ListenAndServe()
}

func newSessionStore(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *session.Store {
	sessions := session.NewStore(cfg.Session, logger)
	sessions.OnSizeChange(func(n int) {
		metrics.ActiveSessions.Set(float64(n))
	})
	return sessions
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}
