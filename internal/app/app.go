package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/stayhub/backend/internal/config"
	"github.com/stayhub/backend/internal/db"
	"github.com/stayhub/backend/internal/handlers"
	"github.com/stayhub/backend/internal/httpserver"
	"github.com/stayhub/backend/internal/identity"
	"github.com/stayhub/backend/internal/middleware"
)

// Run bootstraps a StayHub service.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve or identity")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "identity":
		return serveIdentity(ctx)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// serve runs the BFF proxy server.
func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	deps := buildDependencies(cfg)

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)

	logger.Info("starting bff server", "port", cfg.AppPort, "upstream", cfg.UpstreamBaseURL)
	return runServer(ctx, logger, cfg.AppPort, middleware.RequestLogger(logger)(mux))
}

// serveIdentity runs the development identity service the BFF forwards to.
func serveIdentity(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	var users identity.UserStore
	var sessions identity.SessionStore
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := identity.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		users = identity.NewPostgresUserStore(pool)
		sessions = identity.NewPostgresSessionStore(pool)
		logger.Info("identity service using postgres store")
	} else {
		users = identity.NewMemoryUserStore()
		sessions = identity.NewMemorySessionStore()
		logger.Info("identity service using in-memory stores")
	}

	handler := identity.Handler{
		Users:  users,
		Tokens: identity.NewTokenManager(cfg.AccessTokenTTL, cfg.RefreshTokenTTL, sessions),
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	logger.Info("starting identity server", "port", cfg.IdentityPort)
	return runServer(ctx, logger, cfg.IdentityPort, middleware.RequestLogger(logger)(mux))
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func runServer(ctx context.Context, logger *slog.Logger, port int, handler http.Handler) error {
	srv := httpserver.New(port, handler)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
