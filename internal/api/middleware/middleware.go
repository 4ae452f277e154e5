/**
 * @description
 * Global middleware chain for the web process.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2/middleware/*
 * - github.com/google/uuid: Request ids
 * - go.uber.org/zap: Access log sink
 */

package middleware

import (
	"strings"

	"github.com/earnings-navigator/backend/internal/config"
	"github.com/earnings-navigator/backend/internal/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const accessLogFormat = "${status} ${method} ${path} ${latency} rid=${locals:requestid}\n"

// Register installs the middleware in the order requests pass through it
func Register(app *fiber.App, cfg *config.Config) {
	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.IsDevelopment()}))
	app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: uuid.NewString,
	}))

	if cfg.Server.Env != "test" {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: accessLogFormat,
			Output: zap.NewStdLog(logger.L()).Writer(),
		}))
	}

	app.Use(cors.New(corsConfig(cfg.Server.AllowOrigins)))
	app.Use(Session(cfg.Session.Secret, cfg.Server.Env == "production"))
}

// corsConfig only allows credentials for an explicit origin list; fiber rejects credentials with "*"
func corsConfig(origins string) cors.Config {
	origins = strings.TrimSpace(origins)
	if origins == "" {
		origins = "*"
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: origins != "*",
	}
}
