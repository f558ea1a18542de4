package handlers

import (
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/services"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/gofiber/fiber/v2"
)

type StravaHandler struct {
	strava *services.StravaService
}

func NewStravaHandler(stravaService *services.StravaService) *StravaHandler {
	return &StravaHandler{strava: stravaService}
}

func (h *StravaHandler) Sync(c *fiber.Ctx) error {
	n, err := h.strava.Sync(c.UserContext(), session.FromCtx(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"synced": n})
}

func (h *StravaHandler) Activities(c *fiber.Ctx) error {
	list, err := h.strava.Activities(c.UserContext(), session.FromCtx(c), c.QueryInt("limit", 20))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

func (h *StravaHandler) Disconnect(c *fiber.Ctx) error {
	if err := h.strava.Disconnect(c.UserContext(), session.FromCtx(c)); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, nil)
}
