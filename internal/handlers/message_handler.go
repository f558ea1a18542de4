package handlers

import (
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/dto"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/services"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/gofiber/fiber/v2"
)

type MessageHandler struct {
	messages *services.MessageService
}

func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// List pages backwards through a product's chat; ?before takes an RFC 3339 time.
func (h *MessageHandler) List(c *fiber.Ctx) error {
	productID, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fail(c, fmt.Errorf("%w: before must be an RFC 3339 time", services.ErrInvalidInput))
		}
		before = &t
	}

	msgs, err := h.messages.List(c.UserContext(), session.FromCtx(c), productID, c.QueryInt("limit", 50), before)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(msgs)
}

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	productID, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req dto.SendMessageRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	msg, err := h.messages.Send(c.UserContext(), session.FromCtx(c), productID, req.Content)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, msg)
}

func (h *MessageHandler) Unread(c *fiber.Ctx) error {
	counts, err := h.messages.UnreadCounts(c.UserContext(), session.FromCtx(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(counts)
}
