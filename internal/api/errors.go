package api

import (
	"errors"

	"github.com/earnings-navigator/backend/internal/logger"
	"github.com/earnings-navigator/backend/internal/store"
	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error returned by a handler to an HTTP status
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, store.ErrValidation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, store.ErrUniqueViolation), errors.Is(err, store.ErrForeignKeyViolation):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders handler errors as JSON. Storage details are only logged.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	msg := err.Error()
	if status >= fiber.StatusInternalServerError {
		logger.Error("%s %s failed (rid=%v): %v", c.Method(), c.Path(), c.Locals("requestid"), err)
		msg = "Internal server error"
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
