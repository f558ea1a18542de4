package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	gothstrava "github.com/markbates/goth/providers/strava"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/config"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/database"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/integrations/maps"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/integrations/strava"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/logging"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/mail"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/models"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/presence"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/routes"
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	logging.Attach(pgLogHandler)

	if cfg.TokenEncryptionKey != "" {
		if err := models.InitEncryption(cfg.TokenEncryptionKey); err != nil {
			slog.Error("invalid TOKEN_ENCRYPTION_KEY", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("TOKEN_ENCRYPTION_KEY not set, third-party tokens are stored unencrypted")
	}

	// External collaborators
	renderer, err := mail.NewRenderer()
	if err != nil {
		slog.Error("email templates failed to load", "error", err)
		os.Exit(1)
	}
	mailer := mail.NewClient(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom)

	var geocoder maps.Geocoder
	if cfg.MapsAPIKey != "" {
		geocoder = maps.NewClient(cfg.MapsAPIKey)
	}

	tracker, err := presence.New(cfg.RedisURL, cfg.PresenceTTL)
	if err != nil {
		slog.Error("presence store init failed", "error", err)
		os.Exit(1)
	}

	stravaAPI := strava.NewClient(cfg.StravaAPI, cfg.StravaClientID, cfg.StravaClientSecret)

	// Services
	db := database.DB
	badgeService := services.NewBadgeService(db)
	preferenceService := services.NewPreferenceService(db)
	notificationService := services.NewNotificationService(db, mailer, renderer, preferenceService, cfg.BaseURL)
	filter := services.NewContentFilter()
	userService := services.NewUserService(db, badgeService, tracker, cfg.AdminEmails)
	authService := services.NewAuthService(db, cfg, userService)
	productService := services.NewProductService(db, geocoder, badgeService)
	membershipService := services.NewMembershipService(db, notificationService, badgeService)
	messageService := services.NewMessageService(db, notificationService, filter)
	reviewService := services.NewReviewService(db, notificationService, badgeService, filter, cfg.IPHashKey)
	supportService := services.NewSupportService(db, notificationService)
	feedbackService := services.NewFeedbackService(db)
	stravaService := services.NewStravaService(db, stravaAPI, badgeService)

	// Log and session cleanup
	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cfg.LogRetentionDays, cleanupDone, authService)

	setupIdentityProviders(cfg)

	// Handlers
	h := routes.Handlers{
		Auth:        handlers.NewAuthHandler(authService, stravaService, handlers.Gothic{}, cfg),
		Health:      handlers.NewHealthHandler(database.Ping),
		Products:    handlers.NewProductHandler(productService),
		Memberships: handlers.NewMembershipHandler(membershipService),
		Messages:    handlers.NewMessageHandler(messageService),
		Reviews:     handlers.NewReviewHandler(reviewService),
		Support:     handlers.NewSupportHandler(supportService, feedbackService),
		Users:       handlers.NewUserHandler(userService, preferenceService),
		Strava:      handlers.NewStravaHandler(stravaService),
	}

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Env,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(metrics.Middleware())
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, authService, tracker, h)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if err := tracker.Close(); err != nil {
		slog.Error("presence store close error", "error", err)
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

// setupIdentityProviders registers the goth providers and the cookie store
// gothic keeps OAuth state in.
func setupIdentityProviders(cfg *config.Config) {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store

	var providers []goth.Provider
	if cfg.GoogleClientID != "" {
		providers = append(providers, google.New(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.APIURL+"/api/auth/google/callback",
			"email",
			"profile",
		))
	} else {
		slog.Warn("GOOGLE_CLIENT_ID not set, sign-in is disabled")
	}
	switch {
	case cfg.StravaEnabled():
		providers = append(providers, gothstrava.New(
			cfg.StravaClientID,
			cfg.StravaClientSecret,
			cfg.APIURL+"/api/connect/strava/callback",
			"activity:read",
		))
	case cfg.StravaClientID != "":
		slog.Warn("TOKEN_ENCRYPTION_KEY not set, strava connect is disabled")
	}
	goth.UseProviders(providers...)
	slog.Info("identity providers initialized", "count", len(providers))
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
