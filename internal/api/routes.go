/**
 * @description
 * API Route definitions.
 * Builds the fiber app, installs middleware and mounts the two route groups.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/api/middleware
 * - backend/internal/store
 * - backend/internal/events
 *
 * @notes
 * - Main group at "/" and API group at "/api". Domain handlers attach to these groups.
 */

package api

import (
	"github.com/earnings-navigator/backend/internal/api/handlers"
	"github.com/earnings-navigator/backend/internal/api/middleware"
	"github.com/earnings-navigator/backend/internal/config"
	"github.com/earnings-navigator/backend/internal/events"
	"github.com/earnings-navigator/backend/internal/store"
	"github.com/gofiber/fiber/v2"
)

// Groups are the mounted route groups
type Groups struct {
	Main fiber.Router
	API  fiber.Router
}

// New creates the fiber app with middleware and routes installed
func New(cfg *config.Config, s *store.Store) (*fiber.App, Groups) {
	app := fiber.New(fiber.Config{
		AppName:               "Earnings Navigator",
		StrictRouting:         true,
		CaseSensitive:         true,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: !cfg.IsDevelopment(),
	})

	middleware.Register(app, cfg)
	groups := SetupRoutes(app, s, cfg)
	return app, groups
}

// SetupRoutes configures all routes
func SetupRoutes(app *fiber.App, s *store.Store, cfg *config.Config) Groups {
	healthHandler := handlers.NewHealthHandler(s, cfg.Server.Env)

	// Main group
	main := app.Group("/")
	main.Get("/", healthHandler.Info)

	// API group
	api := app.Group("/api")
	api.Get("/health", healthHandler.Health)

	// Record event stream, only when events go through Redis
	if src, ok := s.Publisher().(events.Subscriber); ok {
		api.Get("/events", handlers.NewEventsHandler(src).Stream)
	}

	return Groups{Main: main, API: api}
}
