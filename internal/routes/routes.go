package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/config"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/presence"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups everything the route table dispatches to.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Health      *handlers.HealthHandler
	Products    *handlers.ProductHandler
	Memberships *handlers.MembershipHandler
	Messages    *handlers.MessageHandler
	Reviews     *handlers.ReviewHandler
	Support     *handlers.SupportHandler
	Users       *handlers.UserHandler
	Strava      *handlers.StravaHandler
}

func Setup(
	app *fiber.App,
	cfg *config.Config,
	resolver middleware.SessionResolver,
	tracker *presence.Tracker,
	h Handlers,
) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(rateLimit(60))

	api.Get("/health", h.Health.Check)

	// Public reads
	api.Get("/products", h.Products.List)
	api.Get("/products/:slug", h.Products.GetBySlug)
	api.Get("/products/:id/reviews", h.Reviews.ListForProduct)
	api.Get("/users/:id", h.Users.Public)
	api.Post("/reviews/draft", h.Reviews.SaveDraft)

	// Sign-in: 10 req/min per IP (stricter)
	auth := api.Group("/auth", rateLimit(10))
	auth.Get("/google", h.Auth.GoogleBegin)
	auth.Get("/google/callback", h.Auth.GoogleCallback)

	// Session middleware is applied per route so it never touches public routes.
	protected := []fiber.Handler{
		middleware.JWTProtected(cfg),
		middleware.RequireSession(resolver),
		middleware.TrackPresence(tracker),
	}
	authed := &sessionRoutes{router: api, chain: protected}

	authed.Post("/auth/logout", h.Auth.Logout)

	// Strava connect reuses the caller's session across the redirect.
	authed.Get("/connect/strava", h.Auth.StravaBegin)
	authed.Get("/connect/strava/callback", h.Auth.StravaCallback)
	authed.Post("/strava/sync", h.Strava.Sync)
	authed.Get("/strava/activities", h.Strava.Activities)
	authed.Delete("/strava", h.Strava.Disconnect)

	// Products
	authed.Post("/products", h.Products.Create)
	authed.Put("/products/:id", h.Products.Update)
	authed.Delete("/products/:id", h.Products.Delete)

	// Memberships
	authed.Post("/products/:id/memberships", h.Memberships.Request)
	authed.Get("/products/:id/memberships", h.Memberships.ListForProduct)
	authed.Get("/products/:id/membership", h.Memberships.Status)
	authed.Post("/memberships/:id/accept", h.Memberships.Accept)
	authed.Post("/memberships/:id/refuse", h.Memberships.Refuse)
	authed.Post("/memberships/:id/remove", h.Memberships.Remove)
	authed.Post("/memberships/:id/read", h.Memberships.MarkRead)
	authed.Delete("/memberships/:id", h.Memberships.Leave)

	// Chat
	authed.Get("/products/:id/messages", h.Messages.List)
	authed.Post("/products/:id/messages", h.Messages.Send)

	// Reviews
	authed.Post("/reviews", h.Reviews.Submit)

	// Support & feedback
	authed.Post("/support", h.Support.CreateTicket)
	authed.Get("/support", h.Support.ListMine)
	authed.Get("/support/:id", h.Support.Thread)
	authed.Post("/support/:id/reply", h.Support.Reply)
	authed.Post("/support/:id/resolve", h.Support.Resolve)
	authed.Post("/feedback", h.Support.CreateFeedback)

	// The caller
	authed.Get("/me", h.Users.Me)
	authed.Put("/me", h.Users.UpdateProfile)
	authed.Delete("/me", h.Users.DeleteAccount)
	authed.Get("/me/memberships", h.Memberships.ListMine)
	authed.Get("/me/unread", h.Messages.Unread)
	authed.Get("/me/email-preferences", h.Users.Preferences)
	authed.Put("/me/email-preferences", h.Users.UpdatePreferences)

	// Admin panel (session + admin flag)
	admin := api.Group("/admin", append(protected[:len(protected):len(protected)], middleware.AdminRequired())...)
	admin.Delete("/reviews/:id", h.Reviews.Delete)
	admin.Get("/tickets", h.Support.ListAll)
	admin.Post("/tickets/:id/reply", h.Support.Reply)
	admin.Get("/feedback", h.Support.ListFeedback)
}

func rateLimit(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}

// sessionRoutes registers routes behind the session chain.
type sessionRoutes struct {
	router fiber.Router
	chain  []fiber.Handler
}

func (r *sessionRoutes) with(h fiber.Handler) []fiber.Handler {
	return append(r.chain[:len(r.chain):len(r.chain)], h)
}

func (r *sessionRoutes) Get(path string, h fiber.Handler) { r.router.Get(path, r.with(h)...) }
func (r *sessionRoutes) Post(path string, h fiber.Handler) { r.router.Post(path, r.with(h)...) }
func (r *sessionRoutes) Put(path string, h fiber.Handler) { r.router.Put(path, r.with(h)...) }
func (r *sessionRoutes) Delete(path string, h fiber.Handler) { r.router.Delete(path, r.with(h)...) }
