package handlers

import (
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/dto"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/services"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/gofiber/fiber/v2"
)

type SupportHandler struct {
	support  *services.SupportService
	feedback *services.FeedbackService
}

func NewSupportHandler(support *services.SupportService, feedback *services.FeedbackService) *SupportHandler {
	return &SupportHandler{support: support, feedback: feedback}
}

func (h *SupportHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ticket, err := h.support.Create(c.UserContext(), session.FromCtx(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, ticket)
}

// Reply serves both the author and admins; the service decides which.
func (h *SupportHandler) Reply(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req dto.ReplyTicketRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	reply, err := h.support.Reply(c.UserContext(), session.FromCtx(c), id, &req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, reply)
}

func (h *SupportHandler) Resolve(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.support.Resolve(c.UserContext(), session.FromCtx(c), id); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, nil)
}

func (h *SupportHandler) Thread(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	thread, err := h.support.Thread(c.UserContext(), session.FromCtx(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(thread)
}

func (h *SupportHandler) ListMine(c *fiber.Ctx) error {
	tickets, err := h.support.ListMine(c.UserContext(), session.FromCtx(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(tickets)
}

// ListAll is the admin queue; ?resolved=true includes closed threads.
func (h *SupportHandler) ListAll(c *fiber.Ctx) error {
	tickets, err := h.support.ListAll(c.UserContext(), session.FromCtx(c), c.QueryBool("resolved", false))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(tickets)
}

func (h *SupportHandler) CreateFeedback(c *fiber.Ctx) error {
	var req dto.CreateFeedbackRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	fb, err := h.feedback.Create(c.UserContext(), session.FromCtx(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, fb)
}

func (h *SupportHandler) ListFeedback(c *fiber.Ctx) error {
	list, err := h.feedback.List(c.UserContext(), session.FromCtx(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}
