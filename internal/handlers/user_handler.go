package handlers

import (
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/dto"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/models"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/services"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	users *services.UserService
	prefs *services.PreferenceService
}

func NewUserHandler(users *services.UserService, prefs *services.PreferenceService) *UserHandler {
	return &UserHandler{users: users, prefs: prefs}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	user, err := h.users.Me(c.UserContext(), session.FromCtx(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(account(user))
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var req dto.UpdateProfileRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	user, err := h.users.UpdateProfile(c.UserContext(), session.FromCtx(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, account(user))
}

func account(u *models.User) dto.Account {
	return dto.Account{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Image:           u.Image,
		IsAdmin:         u.IsAdmin,
		Sex:             u.Sex,
		Country:         u.Country,
		Bio:             u.Bio,
		ProfileComplete: u.ProfileComplete(),
		CreatedAt:       u.CreatedAt,
	}
}

func (h *UserHandler) Public(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	profile, err := h.users.PublicProfile(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(profile)
}

// DeleteAccount erases the caller; the session cookie goes with it.
func (h *UserHandler) DeleteAccount(c *fiber.Ctx) error {
	caller := session.FromCtx(c)
	if caller == nil {
		return fail(c, services.ErrUnauthenticated)
	}
	if err := h.users.DeleteAccount(c.UserContext(), caller, caller.ID); err != nil {
		return fail(c, err)
	}
	clearSessionCookie(c)
	return ok(c, fiber.StatusOK, nil)
}

func (h *UserHandler) Preferences(c *fiber.Ctx) error {
	prefs, err := h.prefs.Get(c.UserContext(), session.FromCtx(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(prefs)
}

func (h *UserHandler) UpdatePreferences(c *fiber.Ctx) error {
	var req dto.UpdatePreferencesRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	prefs, err := h.prefs.Update(c.UserContext(), session.FromCtx(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, prefs)
}
