package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/config"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/dto"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/services"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionCookie carries the session token for browser clients. API clients
// send the same token as a Bearer header.
const SessionCookie = "session_token"

// SessionResolver loads the caller behind a token's user and session ids.
type SessionResolver interface {
	Resolve(ctx context.Context, userID, sessionID uuid.UUID) (*session.Session, error)
}

func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		TokenLookup: "header:Authorization,cookie:" + SessionCookie,
		AuthScheme:  "Bearer",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})
}

// RequireSession resolves the verified token into a server-side session.
// It must run after JWTProtected.
func RequireSession(resolver SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, sessionID, ok := tokenIDs(c)
		if !ok {
			return unauthorized(c, "Invalid claims")
		}

		caller, err := resolver.Resolve(c.UserContext(), userID, sessionID)
		if err != nil {
			if errors.Is(err, services.ErrUnauthenticated) {
				return unauthorized(c, "Session expired or revoked")
			}
			slog.Error("session lookup failed", "user_id", userID.String(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}

		session.Set(c, caller)
		return c.Next()
	}
}

func tokenIDs(c *fiber.Ctx) (uuid.UUID, uuid.UUID, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return uuid.Nil, uuid.Nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	sub, _ := claims["sub"].(string)
	sid, _ := claims["sid"].(string)

	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	sessionID, err := uuid.Parse(sid)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return userID, sessionID, true
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}
