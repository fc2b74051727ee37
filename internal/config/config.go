package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port     string
	Mode     string
	LogLevel string

	// Database configuration
	DatabaseURL string

	// Redis configuration
	RedisURL       string
	AccessCacheTTL time.Duration

	// Stripe configuration
	StripeSecretKey        string
	StripeWebhookSecret    string
	StripeWebhookTolerance time.Duration

	// Admin API
	AdminAPIKey string

	// Brevo email configuration (ops alerts)
	BrevoAPIKey    string
	BrevoFromEmail string
	BrevoFromName  string
	OpsAlertEmail  string

	ServiceName string
}

var AppConfig *Config

func InitConfig() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Ignore error if .env file doesn't exist
	}

	AppConfig = Load()
	return AppConfig.Validate()
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		Port:                   getEnv("PORT", "8080"),
		Mode:                   getEnv("GIN_MODE", "debug"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		RedisURL:               getEnv("REDIS_URL", "redis://localhost:6379/0"),
		AccessCacheTTL:         time.Duration(getEnvInt("ACCESS_CACHE_TTL_SECONDS", 60)) * time.Second,
		StripeSecretKey:        getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:    getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeWebhookTolerance: time.Duration(getEnvInt("STRIPE_WEBHOOK_TOLERANCE_SECONDS", 300)) * time.Second,
		AdminAPIKey:            getEnv("ADMIN_API_KEY", ""),
		BrevoAPIKey:            getEnv("BREVO_API_KEY", ""),
		BrevoFromEmail:         getEnv("BREVO_FROM_EMAIL", ""),
		BrevoFromName:          getEnv("BREVO_FROM_NAME", "Course Payments"),
		OpsAlertEmail:          getEnv("OPS_ALERT_EMAIL", ""),
		ServiceName:            getEnv("SERVICE_NAME", "course-payments"),
	}
}

// Validate rejects configurations the webhook endpoint cannot run with.
func (c *Config) Validate() error {
	if c.StripeWebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is not set")
	}
	if c.StripeWebhookTolerance <= 0 {
		return fmt.Errorf("STRIPE_WEBHOOK_TOLERANCE_SECONDS must be positive")
	}
	return nil
}

// AlertsEnabled reports whether ops alert e-mails can be sent.
func (c *Config) AlertsEnabled() bool {
	return c.BrevoAPIKey != "" && c.BrevoFromEmail != "" && c.OpsAlertEmail != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
