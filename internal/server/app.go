// Package server wires the auth service together and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/shopauth/internal/server/auth"
	"github.com/iudanet/shopauth/internal/server/config"
	"github.com/iudanet/shopauth/internal/server/handlers"
	"github.com/iudanet/shopauth/internal/server/middleware"
	"github.com/iudanet/shopauth/internal/server/password"
	"github.com/iudanet/shopauth/internal/server/storage/sqlite"
	"github.com/iudanet/shopauth/internal/server/token"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = time.Hour
)

// App owns the server's long-lived components.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	version string
}

// New creates the application.
func New(cfg *config.Config, logger *slog.Logger, version string) *App {
	return &App{
		cfg:     cfg,
		logger:  logger,
		version: version,
	}
}

// Run starts the HTTP server and blocks until ctx is canceled, then
// shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	store, err := sqlite.New(ctx, a.cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			a.logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	codec, err := token.NewService(a.cfg.JWTSecret, a.cfg.AccessTokenTTL, a.cfg.RefreshTokenTTL)
	if err != nil {
		return fmt.Errorf("failed to create token codec: %w", err)
	}

	hasher := password.NewHasher(a.cfg.BcryptCost)
	service := auth.NewService(a.logger, store, store, codec, hasher)

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Window:       a.cfg.RateLimitWindow,
		DefaultLimit: a.cfg.DefaultRateLimit,
		PathLimits: map[string]int{
			"/api/auth/login":         a.cfg.LoginRateLimit,
			"/api/auth/register":      a.cfg.RegisterRateLimit,
			"/api/auth/refresh-token": a.cfg.RefreshRateLimit,
		},
		TrustHeaders: a.cfg.ClientIPHeaders,
	}, a.logger)
	defer limiter.Stop()

	go a.purgeLoop(ctx, service)

	server := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.routes(service, codec, limiter),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", slog.String("addr", a.cfg.Addr), slog.String("version", a.version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	select {
	case err := <-errC:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

// routes builds the handler tree and the middleware chain:
// recovery -> logging -> ratelimit -> identity -> mux.
func (a *App) routes(service *auth.Service, codec *token.Service, limiter *middleware.RateLimiter) http.Handler {
	authHandler := handlers.NewAuthHandler(a.logger, service)
	healthHandler := handlers.NewHealthHandler(a.logger, a.version)

	requireAuth := middleware.RequireAuthMiddleware(a.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/refresh-token", authHandler.Refresh)
	mux.Handle("POST /api/auth/logout", requireAuth(http.HandlerFunc(authHandler.Logout)))
	mux.HandleFunc("GET /api/health", healthHandler.Health)

	var handler http.Handler = mux
	handler = middleware.IdentityMiddleware(a.logger, codec)(handler)
	handler = limiter.Middleware(handler)
	handler = middleware.LoggingWithSkip(a.logger, []string{"/api/health"})(handler)
	handler = middleware.RecoveryMiddleware(a.logger)(handler)

	return handler
}

// purgeLoop deletes expired refresh token records on a schedule, keeping
// the cleanup out of request handling.
func (a *App) purgeLoop(ctx context.Context, service *auth.Service) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			purged, err := service.PurgeExpired(ctx)
			if err != nil {
				a.logger.Error("failed to purge expired tokens", slog.Any("error", err))
				continue
			}
			if purged > 0 {
				a.logger.Info("purged expired refresh tokens", slog.Int("count", purged))
			}
		case <-ctx.Done():
			return
		}
	}
}
