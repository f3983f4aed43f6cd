// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

// Command api runs the Perdidos y Adopciones backend.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/STCzao/Perdidos-y-adopciones-back/internal/api"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/board/community"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/board/post"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/config"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/constants"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/mail"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/migration"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/postgres"
	platformredis "github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/redis"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/sec"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/users/auth"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Configuration must load before logging so Debug can pick the level.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})).
		With(slog.String("app", constants.AppName))
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// # Infrastructure

	if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, logger); err != nil {
		return err
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := platformredis.NewClient(ctx, cfg.RedisURL, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	mailer, err := mail.NewSMTPSender(mail.Options{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}, logger)
	if err != nil {
		return err
	}

	// # Domain Wiring

	tokenService := sec.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, constants.AuthIssuer)

	accountStore := auth.NewPostgresAccountStore(pool)
	authService := auth.NewService(accountStore, tokenService, mailer, cfg.FrontendURL, logger)

	postStore := post.NewPostgresStore(pool)
	feedCache := post.NewRedisFeedCache(redisClient, logger)
	postService := post.NewService(postStore, accountStore, feedCache, logger)

	communityStore := community.NewPostgresStore(pool)
	communityService := community.NewService(communityStore, accountStore, logger)

	// # HTTP

	server := api.NewServer(ctx, api.Dependencies{
		Config:    cfg,
		Logger:    logger,
		Pool:      pool,
		Redis:     redisClient,
		Verifier:  tokenService,
		Auth:      auth.NewHandler(authService),
		Posts:     post.NewHandler(postService),
		Community: community.NewHandler(communityService),
	})

	return server.Start(ctx)
}
