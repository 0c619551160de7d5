package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
)

// Pinger is a dependency that can be health checked. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionCounter reports how many player sessions are open.
type SessionCounter interface {
	Len() int
}

type HealthHandler struct {
	db       Pinger
	rdb      *redis.Client
	sessions SessionCounter
	version  string
	startAt  time.Time
}

// NewHealthHandler creates the handler. rdb and sessions may be nil.
func NewHealthHandler(db Pinger, rdb *redis.Client, sessions SessionCounter, version string) *HealthHandler {
	return &HealthHandler{
		db:       db,
		rdb:      rdb,
		sessions: sessions,
		version:  version,
		startAt:  time.Now(),
	}
}

// Live handles GET /health/live (liveness probe).
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready (readiness probe with dependency checks).
// The database is required; Redis only caches, so a Redis outage degrades
// the status without failing the probe.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	db := check(ctx, h.db.Ping)
	var cache fiber.Map
	if h.rdb == nil {
		cache = fiber.Map{"status": "disabled"}
	} else {
		cache = check(ctx, func(ctx context.Context) error { return h.rdb.Ping(ctx).Err() })
	}

	overall, status := "healthy", fiber.StatusOK
	switch {
	case db["status"] != "up":
		overall, status = "unhealthy", fiber.StatusServiceUnavailable
	case cache["status"] == "down":
		overall = "degraded"
	}

	resp := fiber.Map{
		"status":         overall,
		"checks":         fiber.Map{"database": db, "redis": cache},
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
		"version":        h.version,
	}
	if h.sessions != nil {
		resp["sessions"] = h.sessions.Len()
	}
	return c.Status(status).JSON(resp)
}

func check(ctx context.Context, ping func(context.Context) error) fiber.Map {
	start := time.Now()
	err := ping(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}
