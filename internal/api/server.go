// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

/*
Package api assembles the HTTP surface of the service: the router, the
middleware chain and the per-feature sub-routers.
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/STCzao/Perdidos-y-adopciones-back/internal/board/community"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/board/post"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/config"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/constants"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/middleware"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/users/auth"
)

// Dependencies bundles everything the HTTP layer needs. All fields are
// required.
type Dependencies struct {
	Config   *config.Config
	Logger   *slog.Logger
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Verifier middleware.TokenVerifier

	Auth      *auth.Handler
	Posts     *post.Handler
	Community *community.Handler
}

// Server is the HTTP server with its fully wired router.
type Server struct {
	http   *http.Server
	logger *slog.Logger
}

// NewServer builds the router and wraps it in a configured http.Server.
func NewServer(ctx context.Context, deps Dependencies) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(deps.Logger))
	router.Use(middleware.PanicRecovery(deps.Logger))
	router.Use(chimiddleware.Timeout(constants.GlobalRequestTimeout))
	router.Use(middleware.RateLimit(ctx))
	router.Use(middleware.CORS(deps.Config))
	router.Use(middleware.Authenticate(deps.Verifier))

	router.Get("/healthz", healthHandler())
	router.Get("/readyz", readinessHandler(deps.Pool, deps.Redis))

	router.Route("/api/v1", func(api chi.Router) {
		api.Mount("/auth", deps.Auth.Routes())
		api.Mount("/posts", deps.Posts.Routes())
		api.Mount("/community", deps.Community.Routes())
	})

	return &Server{
		http: &http.Server{
			Addr:              ":" + deps.Config.ServerPort,
			Handler:           router,
			ReadTimeout:       constants.DefaultReadTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
		},
		logger: deps.Logger,
	}
}

// Start runs the server until the context is cancelled, then drains
// in-flight requests within [constants.ShutdownTimeout].
func (server *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		server.logger.Info("http server listening", slog.String("addr", server.http.Addr))
		if err := server.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	server.logger.Info("http server shutting down")
	if err := server.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api: shutdown: %w", err)
	}
	return nil
}
