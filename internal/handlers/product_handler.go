package handlers

import (
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/dto"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/services"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	products *services.ProductService
}

func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	filter := dto.ProductFilter{
		Sport: c.Query("sport"),
		Level: c.Query("level"),
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 20),
	}
	products, total, err := h.products.List(c.UserContext(), filter)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"items": products, "total": total})
}

func (h *ProductHandler) GetBySlug(c *fiber.Ctx) error {
	product, err := h.products.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(product)
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateProductRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	product, err := h.products.Create(c.UserContext(), session.FromCtx(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, product)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req dto.UpdateProductRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	product, err := h.products.Update(c.UserContext(), session.FromCtx(c), id, &req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, product)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.products.Delete(c.UserContext(), session.FromCtx(c), id); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, nil)
}
