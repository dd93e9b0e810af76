package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultPort             = "8080"
	defaultHoldWindow       = "24h"
	defaultSweepInterval    = "10m"
	defaultProviderTimeout  = "10s"
	defaultPromotionRetries = "3"
	defaultPollInterval     = "3s"
	defaultWizardTokenTTL   = "48h"
	defaultWizardSecret     = "change-me-wizard-secret"
	defaultWebhookSecret    = "change-me-webhook-secret"
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	// Payment provider (BNPL) integration.
	ProviderBaseURL  string
	ProviderAPIKey   string
	ProviderTimeout  time.Duration
	WebhookSecret    string
	ReturnURL        string
	CancelURL        string
	FrontendBaseURL  string
	PromotionRetries int

	// Draft lifecycle.
	HoldWindow    time.Duration
	SweepInterval time.Duration
	PollInterval  time.Duration

	// Wizard session tokens.
	WizardTokenSecret string
	WizardTokenTTL    time.Duration

	// Optional hotel inventory aggregator.
	AggregatorBaseURL string
	AggregatorAPIKey  string
}

func Load() (*Config, error) {
	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", "tripdesk.db"))

	cfg.ProviderBaseURL = strings.TrimSpace(os.Getenv("BNPL_BASE_URL"))
	cfg.ProviderAPIKey = strings.TrimSpace(os.Getenv("BNPL_API_KEY"))
	cfg.WebhookSecret = strings.TrimSpace(getEnv("BNPL_WEBHOOK_SECRET", defaultWebhookSecret))
	cfg.ReturnURL = strings.TrimSpace(os.Getenv("BNPL_RETURN_URL"))
	cfg.CancelURL = strings.TrimSpace(os.Getenv("BNPL_CANCEL_URL"))
	cfg.FrontendBaseURL = strings.TrimSpace(getEnv("FRONTEND_BASE_URL", "http://localhost:3000"))

	cfg.WizardTokenSecret = strings.TrimSpace(getEnv("WIZARD_TOKEN_SECRET", defaultWizardSecret))

	cfg.AggregatorBaseURL = strings.TrimSpace(os.Getenv("AGGREGATOR_BASE_URL"))
	cfg.AggregatorAPIKey = strings.TrimSpace(os.Getenv("AGGREGATOR_API_KEY"))

	var err error
	if cfg.HoldWindow, err = parseDurationEnv("DRAFT_HOLD_WINDOW", defaultHoldWindow); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = parseDurationEnv("DRAFT_SWEEP_INTERVAL", defaultSweepInterval); err != nil {
		return nil, err
	}
	if cfg.ProviderTimeout, err = parseDurationEnv("BNPL_TIMEOUT", defaultProviderTimeout); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = parseDurationEnv("STATUS_POLL_INTERVAL", defaultPollInterval); err != nil {
		return nil, err
	}
	if cfg.WizardTokenTTL, err = parseDurationEnv("WIZARD_TOKEN_TTL", defaultWizardTokenTTL); err != nil {
		return nil, err
	}
	if cfg.PromotionRetries, err = parseIntEnv("PROMOTION_RETRIES", defaultPromotionRetries); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.HoldWindow <= 0 {
		return fmt.Errorf("DRAFT_HOLD_WINDOW must be > 0")
	}
	if cfg.SweepInterval <= 0 {
		return fmt.Errorf("DRAFT_SWEEP_INTERVAL must be > 0")
	}
	if cfg.ProviderTimeout <= 0 {
		return fmt.Errorf("BNPL_TIMEOUT must be > 0")
	}
	if cfg.PromotionRetries < 1 {
		return fmt.Errorf("PROMOTION_RETRIES must be >= 1")
	}
	if cfg.WizardTokenTTL <= 0 {
		return fmt.Errorf("WIZARD_TOKEN_TTL must be > 0")
	}

	if isProdLike(cfg.AppEnv) {
		if cfg.ProviderBaseURL == "" {
			return fmt.Errorf("in prod/release BNPL_BASE_URL must be set")
		}
		if cfg.ProviderAPIKey == "" {
			return fmt.Errorf("in prod/release BNPL_API_KEY must be set")
		}
		if isEmptyOrDefault(cfg.WebhookSecret, defaultWebhookSecret) {
			return fmt.Errorf("in prod/release BNPL_WEBHOOK_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.WizardTokenSecret, defaultWizardSecret) {
			return fmt.Errorf("in prod/release WIZARD_TOKEN_SECRET must be set and not default")
		}
	}
	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	var n int
	if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
