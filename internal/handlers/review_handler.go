package handlers

import (
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/dto"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/services"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/gofiber/fiber/v2"
)

type ReviewHandler struct {
	reviews *services.ReviewService
}

func NewReviewHandler(reviews *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// SaveDraft keeps an anonymous visitor's review keyed by their address.
func (h *ReviewHandler) SaveDraft(c *fiber.Ctx) error {
	var req dto.ReviewDraftRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	review, err := h.reviews.SaveDraft(c.UserContext(), c.IP(), &req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, review)
}

func (h *ReviewHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitReviewRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	review, err := h.reviews.Submit(c.UserContext(), session.FromCtx(c), c.IP(), &req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, review)
}

func (h *ReviewHandler) ListForProduct(c *fiber.Ctx) error {
	productID, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	reviews, err := h.reviews.ListForProduct(c.UserContext(), productID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(reviews)
}

func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.reviews.Delete(c.UserContext(), session.FromCtx(c), id); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, nil)
}
