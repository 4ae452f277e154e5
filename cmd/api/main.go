/**
 * @description
 * Main entry point for the Earnings Navigator web process.
 * Loads configuration, bootstraps the schema and serves the route groups.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: Web framework
 * - github.com/earnings-navigator/backend/internal/config: Config loader
 * - github.com/earnings-navigator/backend/internal/db: Database connections
 * - github.com/earnings-navigator/backend/internal/store: Persistence context
 *
 * @notes
 * - The schema is created if missing before the first request is accepted.
 * - Redis is optional; without REDIS_URL record events are discarded.
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/earnings-navigator/backend/internal/api"
	"github.com/earnings-navigator/backend/internal/config"
	"github.com/earnings-navigator/backend/internal/db"
	"github.com/earnings-navigator/backend/internal/events"
	"github.com/earnings-navigator/backend/internal/logger"
	"github.com/earnings-navigator/backend/internal/store"
	"github.com/gofiber/fiber/v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	logger.Init(cfg.Server.Env)
	defer logger.Sync()

	// 2. Initialize Database Connection
	gdb, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}

	opts := []store.Option{store.WithPrePing(cfg.DB.PrePing)}

	// Redis (Record events)
	if cfg.Redis.URL != "" {
		redisClient, err := db.ConnectRedis(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		opts = append(opts, store.WithPublisher(events.NewRedisPublisher(redisClient, events.Channel)))
	} else {
		logger.Info("REDIS_URL not set, record events are disabled")
	}

	s := store.New(gdb, opts...)
	defer s.Close()

	// 3. Schema Bootstrap
	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = s.Init(initCtx)
	cancel()
	if err != nil {
		logger.Fatal("Failed to initialize schema: %v", err)
	}

	// 4. Fiber App and Routes
	app, _ := api.New(cfg, s)

	// 5. Start Server, 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("🚀 Starting Earnings Navigator on port %s", cfg.Server.Port)
	if err := serve(app, ":"+cfg.Server.Port, quit); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
	logger.Info("Server exited.")
}

// serve listens on addr until a signal arrives on quit, then shuts down gracefully.
// A listen failure is returned immediately.
func serve(app *fiber.App, addr string, quit <-chan os.Signal) error {
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-quit:
	}

	logger.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("Error during shutdown: %v", err)
	}
	return nil
}
