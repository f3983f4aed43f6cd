// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/constants"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/respond"
)

// healthProbeTimeout bounds each dependency check so a stuck backend
// cannot hang the probe.
const healthProbeTimeout = 2 * time.Second

// healthHandler answers the liveness probe. It only proves the process is
// serving requests.
func healthHandler() http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		respond.JSON(writer, http.StatusOK, map[string]string{
			constants.FieldStatus: "ok",
			"version":             constants.AppVersion,
		})
	}
}

// readinessHandler answers the readiness probe: the service is ready only
// when PostgreSQL and Redis both respond.
func readinessHandler(pool *pgxpool.Pool, redisClient *redis.Client) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		ctx, cancel := context.WithTimeout(request.Context(), healthProbeTimeout)
		defer cancel()

		checks := map[string]string{
			"postgres": "ok",
			"redis":    "ok",
		}
		healthy := true

		if err := pool.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}

		status := http.StatusOK
		overall := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}

		respond.JSON(writer, status, map[string]any{
			constants.FieldStatus: overall,
			constants.FieldChecks: checks,
		})
	}
}
