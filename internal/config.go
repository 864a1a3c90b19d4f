package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// How long a signup session stays valid
	SessionDuration time.Duration

	// Application base URL (for checkout return URLs and email links)
	BaseURL string

	// Billing provider: "stripe" or "mock"
	BillingProvider string

	// Stripe Billing Configuration
	// Required when BillingProvider is "stripe".
	StripeSecretKey     string // Stripe API secret key (sk_test_... or sk_live_...)
	StripeWebhookSecret string // Stripe webhook signing secret (whsec_...)

	// Price used for checkout when the team has no plan or the plan has no price
	StripeDefaultPriceID string

	// Product analytics
	// Capture is disabled when AnalyticsAPIKey is empty.
	AnalyticsHost   string
	AnalyticsAPIKey string
	EEAvailable     bool

	// SMTP Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	// Worker Configuration
	WorkerEnabled      bool
	WorkerConcurrency  int
	WorkerPollInterval time.Duration
	WorkerJobTimeout   time.Duration

	// Messaging
	FollowUpDelay time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8000),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		SessionDuration: getEnvDuration("SESSION_DURATION", 7*24*time.Hour),

		BaseURL: getEnv("BASE_URL", "http://localhost:8000"),

		BillingProvider: getEnv("BILLING_PROVIDER", "mock"),

		StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeDefaultPriceID: getEnv("STRIPE_DEFAULT_PRICE_ID", ""),

		AnalyticsHost:   getEnv("ANALYTICS_HOST", "https://app.posthog.com"),
		AnalyticsAPIKey: getEnv("ANALYTICS_API_KEY", ""),
		EEAvailable:     getEnvBool("EE_AVAILABLE", true),

		// SMTP defaults for Mailhog (development)
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "hey@posthog.com"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "PostHog"),

		// Worker defaults
		WorkerEnabled:      getEnvBool("WORKER_ENABLED", true),
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 2),
		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 5*time.Second),
		WorkerJobTimeout:   getEnvDuration("WORKER_JOB_TIMEOUT", 5*time.Minute),

		FollowUpDelay: getEnvDuration("MESSAGING_FOLLOW_UP_DELAY", 72*time.Hour),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.BillingProvider {
	case "stripe":
		if c.StripeSecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required when BILLING_PROVIDER is 'stripe'")
		}
		if c.StripeWebhookSecret == "" {
			return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required when BILLING_PROVIDER is 'stripe'")
		}
	case "mock":
	default:
		return fmt.Errorf("BILLING_PROVIDER must be either 'stripe' or 'mock', got: %s", c.BillingProvider)
	}

	if c.FollowUpDelay < 0 {
		return fmt.Errorf("MESSAGING_FOLLOW_UP_DELAY must not be negative, got: %s", c.FollowUpDelay)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
