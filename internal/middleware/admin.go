package middleware

import (
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/dto"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/gofiber/fiber/v2"
)

// AdminRequired lets through callers whose user row carries the admin flag.
// The flag is read by RequireSession on every request, so revoking admin
// rights takes effect immediately.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := session.FromCtx(c)
		if caller == nil {
			return unauthorized(c, "Unauthorized")
		}
		if !caller.IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}
		return c.Next()
	}
}
