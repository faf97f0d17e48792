package api

import (
	"errors"
	"fmt"

	domain "github.com/CodeineSolm/taskmaster/domain/task"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

const (
	msgInvalidID      = "Invalid task id"
	msgInvalidBody    = "Invalid request body"
	msgValidation     = "One or more validation errors occurred."
	msgConflict       = "The task was modified by another request"
	msgInternalServer = "An unexpected error occurred"
)

// writeTaskError maps a service error for task id to its HTTP response.
func writeTaskError(c *fiber.Ctx, logger types.Logger, id int64, err error) error {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(ValidationErrorResponse{
			Message: msgValidation,
			Errors:  ve.Fields,
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Message: fmt.Sprintf("Task with id %d not found", id),
		})
	case errors.Is(err, domain.ErrConflict):
		logger.Warn("Concurrent update rejected", "id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Message: msgConflict,
		})
	default:
		logger.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Message: msgInternalServer,
		})
	}
}

// errorHandler handles framework errors such as unknown routes and
// recovered panics.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := msgInternalServer

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		m.logger.Error("Unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(ErrorResponse{Message: message})
}
