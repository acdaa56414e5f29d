package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"medimitra-membership-api/services/email"
)

type Config struct {
	Server   ServerConfig
	Session  SessionConfig
	Remote   RemoteConfig
	Checkout CheckoutConfig
	Redis    RedisConfig
	SMTP     email.SMTPConfig
}

type ServerConfig struct {
	Port string
}

type SessionConfig struct {
	Secret string
	Domain string
	MaxAge int
}

// RemoteConfig points at the collaborator API that owns the four remote
// operations: email lookup, order creation, payment verification and
// registration commit.
type RemoteConfig struct {
	BaseURL string
}

// CheckoutConfig carries the externally hosted payment widget settings.
// KeyID is the public gateway key embedded in the widget configuration;
// ScriptURL is the fixed identifier of the checkout script loaded once per
// process; TokenSecret signs the per-invocation callback tokens.
type CheckoutConfig struct {
	KeyID       string
	ScriptURL   string
	TokenSecret string
	ThemeColor  string
}

type RedisConfig struct {
	URL               string
	WorkerConcurrency int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenv("SERVER_PORT", "8080"),
		},
		Session: SessionConfig{
			Secret: os.Getenv("SESSION_SECRET"),
			Domain: os.Getenv("SESSION_DOMAIN"),
			MaxAge: getenvInt("SESSION_MAX_AGE", 3600),
		},
		Remote: RemoteConfig{
			BaseURL: getenv("REMOTE_API_BASE_URL", "https://api.medimitra.in"),
		},
		Checkout: CheckoutConfig{
			KeyID:       os.Getenv("CHECKOUT_KEY_ID"),
			ScriptURL:   getenv("CHECKOUT_SCRIPT_URL", "https://checkout.razorpay.com/v1/checkout.js"),
			TokenSecret: os.Getenv("CHECKOUT_TOKEN_SECRET"),
			ThemeColor:  getenv("CHECKOUT_THEME_COLOR", "#0d9488"),
		},
		Redis: RedisConfig{
			URL:               getenv("REDIS_URL", "redis://localhost:6379/0"),
			WorkerConcurrency: getenvInt("WORKER_CONCURRENCY", 2),
		},
		SMTP: email.SMTPConfig{
			Host:         os.Getenv("SMTP_HOST"),
			Port:         getenvInt("SMTP_PORT", 587),
			Username:     os.Getenv("SMTP_USER"),
			Password:     os.Getenv("SMTP_PASSWORD"),
			From:         getenv("SMTP_FROM", "no-reply@medimitra.in"),
			SupportEmail: getenv("SUPPORT_EMAIL", "support@medimitra.in"),
		},
	}

	if cfg.Session.Secret == "" {
		log.Printf("Warning: SESSION_SECRET not set, sessions will not survive restarts")
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
