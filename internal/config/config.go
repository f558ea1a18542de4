package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Sessions
	JWTSecret     string
	SessionTTL    time.Duration
	SessionSecret string
	CookieSecure  bool

	// Identity providers
	GoogleClientID     string
	GoogleClientSecret string
	StravaClientID     string
	StravaClientSecret string

	// Email provider
	MailAPIKey string
	MailAPIURL string
	MailFrom   string

	// Third-party APIs
	MapsAPIKey string
	StravaAPI  string

	// Presence cache
	RedisURL    string
	PresenceTTL time.Duration

	// Secrets for data at rest
	TokenEncryptionKey string
	IPHashKey          string

	// Admin
	AdminEmails string

	// Server
	Port             string
	BaseURL          string
	APIURL           string
	CORSOrigins      string
	Env              string
	LogRetentionDays int
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	env := getEnv("APP_ENV", "development")

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "sportpartner"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		SessionTTL:    parseDuration(getEnv("SESSION_TTL", "720h"), 720*time.Hour),
		SessionSecret: getEnv("SESSION_SECRET", "dev-session-secret-change-me"),
		CookieSecure:  env == "production",

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		StravaClientID:     getEnv("STRAVA_CLIENT_ID", ""),
		StravaClientSecret: getEnv("STRAVA_CLIENT_SECRET", ""),

		MailAPIKey: getEnv("MAIL_API_KEY", ""),
		MailAPIURL: getEnv("MAIL_API_URL", "https://api.resend.com/emails"),
		MailFrom:   getEnv("MAIL_FROM", "Sport Partner <noreply@sportpartner.app>"),

		MapsAPIKey: getEnv("MAPS_API_KEY", ""),
		StravaAPI:  getEnv("STRAVA_API_URL", "https://www.strava.com"),

		RedisURL:    getEnv("REDIS_URL", ""),
		PresenceTTL: parseDuration(getEnv("PRESENCE_TTL", "15m"), 15*time.Minute),

		TokenEncryptionKey: getEnv("TOKEN_ENCRYPTION_KEY", ""),
		IPHashKey:          getEnv("IP_HASH_KEY", "dev-ip-hash-key"),

		AdminEmails: getEnv("ADMIN_EMAILS", ""),

		Port:             getEnv("PORT", "8080"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:3000"),
		APIURL:           getEnv("API_URL", "http://localhost:8080"),
		CORSOrigins:      getEnv("CORS_ORIGINS", "*"),
		Env:              env,
		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
	}
}

// StravaEnabled reports whether the Strava connect flow may run. Production
// refuses to store third-party tokens without an encryption key.
func (c *Config) StravaEnabled() bool {
	if c.StravaClientID == "" {
		return false
	}
	return c.TokenEncryptionKey != "" || c.Env != "production"
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
