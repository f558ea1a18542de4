package middleware

import (
	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func CORS(cfg *config.Config) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Authorization, Accept, X-Request-ID",
		AllowMethods: "GET, POST, PUT, DELETE, PATCH, OPTIONS",
		// cookies only make sense with an explicit origin list
		AllowCredentials: cfg.CORSOrigins != "*",
	})
}
