package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/dto"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var errInvalidID = fmt.Errorf("%w: malformed id", services.ErrInvalidInput)

// ok answers with a successful result.
func ok(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(dto.ActionResult{Success: true, Data: data})
}

// fail maps a service error onto its HTTP status. Messages of unmapped errors
// are never sent to the client.
func fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		slog.Error("request failed",
			"request_id", requestID(c),
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
		msg = "Internal server error"
	}
	return c.Status(status).JSON(dto.ActionResult{Success: false, Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidInput):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// bind decodes and validates a JSON request body.
func bind(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return fmt.Errorf("%w: malformed request body", services.ErrInvalidInput)
	}
	if err := dto.Validate(req); err != nil {
		return fmt.Errorf("%w: %s", services.ErrInvalidInput, err)
	}
	return nil
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, errInvalidID
	}
	return id, nil
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
