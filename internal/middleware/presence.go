package middleware

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/presence"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/gofiber/fiber/v2"
)

// TrackPresence stamps the caller's last-active time. Failures are logged
// and never fail the request.
func TrackPresence(tracker *presence.Tracker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if caller := session.FromCtx(c); caller != nil {
			if err := tracker.Touch(c.UserContext(), caller.ID); err != nil {
				slog.Warn("presence update failed", "user_id", caller.ID.String(), "error", err)
			}
		}
		return c.Next()
	}
}
