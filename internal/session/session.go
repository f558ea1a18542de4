// Package session carries the server-resolved identity of the caller.
package session

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const localsKey = "session"

// Session is the caller identity as resolved from the server-side session
// store. It is never built from request bodies.
type Session struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	IsAdmin   bool
	Email     string
	Name      string
}

// Set stores the resolved session in Fiber locals.
func Set(c *fiber.Ctx, s *Session) {
	c.Locals(localsKey, s)
}

// FromCtx returns the resolved session or nil for anonymous callers.
func FromCtx(c *fiber.Ctx) *Session {
	if s, ok := c.Locals(localsKey).(*Session); ok {
		return s
	}
	return nil
}
