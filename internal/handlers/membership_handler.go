package handlers

import (
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/services"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/gofiber/fiber/v2"
)

type MembershipHandler struct {
	memberships *services.MembershipService
}

func NewMembershipHandler(memberships *services.MembershipService) *MembershipHandler {
	return &MembershipHandler{memberships: memberships}
}

// Request asks to join the product in the path.
func (h *MembershipHandler) Request(c *fiber.Ctx) error {
	productID, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	m, err := h.memberships.Request(c.UserContext(), session.FromCtx(c), productID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, m)
}

func (h *MembershipHandler) Accept(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	m, err := h.memberships.Accept(c.UserContext(), session.FromCtx(c), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, m)
}

func (h *MembershipHandler) Refuse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.memberships.Refuse(c.UserContext(), session.FromCtx(c), id); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, nil)
}

func (h *MembershipHandler) Remove(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	m, err := h.memberships.Remove(c.UserContext(), session.FromCtx(c), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, m)
}

func (h *MembershipHandler) Leave(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.memberships.Leave(c.UserContext(), session.FromCtx(c), id); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, nil)
}

func (h *MembershipHandler) MarkRead(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.memberships.MarkRead(c.UserContext(), session.FromCtx(c), id); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, nil)
}

func (h *MembershipHandler) ListForProduct(c *fiber.Ctx) error {
	productID, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	list, err := h.memberships.ListForProduct(c.UserContext(), session.FromCtx(c), productID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

// Status returns the caller's own membership in the product, if any.
func (h *MembershipHandler) Status(c *fiber.Ctx) error {
	productID, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	m, err := h.memberships.Status(c.UserContext(), session.FromCtx(c), productID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(m)
}

func (h *MembershipHandler) ListMine(c *fiber.Ctx) error {
	list, err := h.memberships.ListMine(c.UserContext(), session.FromCtx(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}
