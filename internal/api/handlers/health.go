/**
 * @description
 * Service info and health handlers.
 * The main group serves GET / and the API group serves GET /api/health.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/store
 * - backend/internal/events
 */

package handlers

import (
	"context"
	"time"

	"github.com/earnings-navigator/backend/internal/events"
	"github.com/earnings-navigator/backend/internal/logger"
	"github.com/earnings-navigator/backend/internal/store"
	"github.com/gofiber/fiber/v2"
)

const healthTimeout = 2 * time.Second

// ServiceName is reported by the info and health endpoints
const ServiceName = "earnings-navigator"

type HealthHandler struct {
	Store   *store.Store
	Env     string
	Started time.Time
}

func NewHealthHandler(s *store.Store, env string) *HealthHandler {
	return &HealthHandler{Store: s, Env: env, Started: time.Now()}
}

// Info describes the service
// GET /
func (h *HealthHandler) Info(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service":  ServiceName,
		"env":      h.Env,
		"entities": []string{"company", "earnings_call", "earnings_analysis", "query"},
		"uptime":   time.Since(h.Started).Round(time.Second).String(),
	})
}

// Health reports store and event transport reachability
// GET /api/health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	status := fiber.StatusOK
	body := fiber.Map{
		"status":   "ok",
		"service":  ServiceName,
		"database": "connected",
		"events":   h.Store.Publisher().Name(),
	}

	if err := h.Store.Ping(ctx); err != nil {
		logger.Error("Health: store ping failed: %v", err)
		status = fiber.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = "unreachable"
	}

	if p, ok := h.Store.Publisher().(events.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			logger.Warn("Health: event transport ping failed: %v", err)
			status = fiber.StatusServiceUnavailable
			body["status"] = "degraded"
			body["events"] = h.Store.Publisher().Name() + " unreachable"
		}
	}

	return c.Status(status).JSON(body)
}
