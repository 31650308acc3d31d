package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db    *pgxpool.Pool
	redis *redis.Client
	mongo *mongo.Client
}

// NewHealthHandler creates a health handler with no dependency checks.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// NewHealthHandlerWithDeps creates a health handler that pings its backends
// on readiness checks.
func NewHealthHandlerWithDeps(db *pgxpool.Pool, redisClient *redis.Client, mongoClient *mongo.Client) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redisClient,
		mongo: mongoClient,
	}
}

// Register registers health routes on the app root (unauthenticated).
func (h *HealthHandler) Register(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/health/stats", h.Stats)
	app.Get("/ready", h.Ready)
}

// Health is the liveness probe.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Stats reports connection pool statistics for the configured backends.
func (h *HealthHandler) Stats(c *fiber.Ctx) error {
	stats := fiber.Map{}

	if h.db != nil {
		s := h.db.Stat()
		stats["postgres"] = fiber.Map{
			"total_conns":    s.TotalConns(),
			"acquired_conns": s.AcquiredConns(),
			"idle_conns":     s.IdleConns(),
			"max_conns":      s.MaxConns(),
			"acquire_count":  s.AcquireCount(),
		}
	}

	if h.redis != nil {
		s := h.redis.PoolStats()
		stats["redis"] = fiber.Map{
			"hits":        s.Hits,
			"misses":      s.Misses,
			"timeouts":    s.Timeouts,
			"total_conns": s.TotalConns,
			"idle_conns":  s.IdleConns,
		}
	}

	return c.JSON(stats)
}

// Ready pings every configured backend.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			checks["postgres"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			checks["postgres"] = "healthy"
		}
	} else {
		checks["postgres"] = "not configured"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			checks["redis"] = "healthy"
		}
	} else {
		checks["redis"] = "not configured"
	}

	if h.mongo != nil {
		if err := h.mongo.Ping(ctx, readpref.Primary()); err != nil {
			checks["mongodb"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			checks["mongodb"] = "healthy"
		}
	} else {
		checks["mongodb"] = "not configured"
	}

	status := "ready"
	statusCode := fiber.StatusOK
	if !allHealthy {
		status = "not ready"
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
