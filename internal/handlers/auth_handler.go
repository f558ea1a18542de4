package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/config"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/dto"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/integrations/strava"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/services"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
)

// ProviderAuth runs the OAuth redirect dance with an identity provider.
type ProviderAuth interface {
	Begin(c *fiber.Ctx, provider string) error
	Complete(c *fiber.Ctx, provider string) (goth.User, error)
}

// Gothic is ProviderAuth backed by goth's net/http helpers.
type Gothic struct{}

func (Gothic) Begin(c *fiber.Ctx, provider string) error {
	return adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gothic.BeginAuthHandler(w, gothic.GetContextWithProvider(r, provider))
	})(c)
}

func (Gothic) Complete(c *fiber.Ctx, provider string) (goth.User, error) {
	var (
		user    goth.User
		authErr error
	)
	err := adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, authErr = gothic.CompleteUserAuth(w, gothic.GetContextWithProvider(r, provider))
	})(c)
	if err != nil {
		return goth.User{}, err
	}
	return user, authErr
}

type AuthHandler struct {
	auth   *services.AuthService
	strava *services.StravaService
	oauth  ProviderAuth
	cfg    *config.Config
}

func NewAuthHandler(auth *services.AuthService, stravaService *services.StravaService, oauth ProviderAuth, cfg *config.Config) *AuthHandler {
	return &AuthHandler{auth: auth, strava: stravaService, oauth: oauth, cfg: cfg}
}

func (h *AuthHandler) GoogleBegin(c *fiber.Ctx) error {
	return h.oauth.Begin(c, "google")
}

// GoogleCallback signs the user in, sets the session cookie and also returns
// the token for API clients.
func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	gu, err := h.oauth.Complete(c, "google")
	if err != nil {
		slog.Warn("google sign-in failed", "request_id", requestID(c), "error", err)
		return fail(c, services.ErrUnauthenticated)
	}

	resp, err := h.auth.SignIn(c.UserContext(), services.Identity{
		Provider: "google",
		Email:    gu.Email,
		Name:     gu.Name,
		Image:    gu.AvatarURL,
	}, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return fail(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    resp.Token,
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.SessionTTL),
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return ok(c, fiber.StatusOK, resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext(), session.FromCtx(c)); err != nil {
		return fail(c, err)
	}
	clearSessionCookie(c)
	return ok(c, fiber.StatusOK, nil)
}

func (h *AuthHandler) StravaBegin(c *fiber.Ctx) error {
	if !h.cfg.StravaEnabled() {
		return stravaUnavailable(c)
	}
	return h.oauth.Begin(c, "strava")
}

// StravaCallback links the signed-in caller to their Strava athlete.
func (h *AuthHandler) StravaCallback(c *fiber.Ctx) error {
	if !h.cfg.StravaEnabled() {
		return stravaUnavailable(c)
	}
	gu, err := h.oauth.Complete(c, "strava")
	if err != nil {
		slog.Warn("strava connect failed", "request_id", requestID(c), "error", err)
		return fail(c, services.ErrUnauthenticated)
	}

	conn, err := h.strava.Connect(c.UserContext(), session.FromCtx(c), gu.UserID, strava.Token{
		AccessToken:  gu.AccessToken,
		RefreshToken: gu.RefreshToken,
		ExpiresAt:    gu.ExpiresAt,
	})
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, conn)
}

func stravaUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ActionResult{Success: false, Error: "strava connect is not configured"})
}

func clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
