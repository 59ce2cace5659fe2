// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Settings is the full runtime configuration of the hiring agent.
type Settings struct {
	AppEnv string
	Port   int

	PersistenceEnabled bool
	PersistenceDBPath  string
	DatabaseURL        string

	WhatsAppWebhookSecret      string
	TelephonyWebhookSecret     string
	WebhookMaxRetries          int
	WebhookRetryBackoffSeconds int

	AuthEnabled bool
	JWT         JWTConfig

	DefaultFirstContactSLAMinutes int
	WebsiteWhatsAppNumber         string

	RecaptchaEnabled  bool
	RecaptchaSecret   string
	RecaptchaMinScore float64

	LogLevel string
}

// Load reads settings from environment variables, applying defaults and
// clamping numeric values to their allowed ranges.
func Load() (*Settings, error) {
	dbPath := envString("PERSISTENCE_DB_PATH", "data/hiring_agent.sqlite3")
	databaseURL := envString("DATABASE_URL", "")
	if databaseURL == "" {
		databaseURL = "sqlite:///" + strings.ReplaceAll(dbPath, `\`, "/")
	}

	jwtCfg, err := NewJWTConfig()
	if err != nil {
		return nil, err
	}

	s := &Settings{
		AppEnv:                        envString("APP_ENV", "development"),
		Port:                          envInt("PORT", 8080),
		PersistenceEnabled:            envBool("PERSISTENCE_ENABLED", true),
		PersistenceDBPath:             dbPath,
		DatabaseURL:                   databaseURL,
		WhatsAppWebhookSecret:         envString("WHATSAPP_WEBHOOK_SECRET", ""),
		TelephonyWebhookSecret:        envString("TELEPHONY_WEBHOOK_SECRET", ""),
		WebhookMaxRetries:             max(1, envInt("WEBHOOK_MAX_RETRIES", 3)),
		WebhookRetryBackoffSeconds:    max(1, envInt("WEBHOOK_RETRY_BACKOFF_SECONDS", 60)),
		AuthEnabled:                   envBool("AUTH_ENABLED", false),
		JWT:                           *jwtCfg,
		DefaultFirstContactSLAMinutes: min(240, max(5, envInt("DEFAULT_FIRST_CONTACT_SLA_MINUTES", 30))),
		WebsiteWhatsAppNumber:         envString("WEBSITE_WHATSAPP_NUMBER", "+919187351205"),
		RecaptchaEnabled:              envBool("RECAPTCHA_ENABLED", false),
		RecaptchaSecret:               envString("RECAPTCHA_SECRET", ""),
		RecaptchaMinScore:             envFloat("RECAPTCHA_MIN_SCORE", 0.5),
		LogLevel:                      strings.ToLower(envString("LOG_LEVEL", "info")),
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks values that have no safe fallback.
func (s *Settings) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("config error: PORT must be between 1 and 65535, got: %d", s.Port)
	}
	if s.RecaptchaMinScore < 0 || s.RecaptchaMinScore > 1 {
		return fmt.Errorf("config error: RECAPTCHA_MIN_SCORE must be between 0 and 1, got: %g", s.RecaptchaMinScore)
	}
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config error: LOG_LEVEL must be one of debug, info, warn, error, got: %q", s.LogLevel)
	}
	return nil
}

// IsProduction reports whether APP_ENV names a production deployment.
func (s *Settings) IsProduction() bool {
	env := strings.ToLower(s.AppEnv)
	return env == "production" || env == "prod"
}

func envString(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// envInt falls back to defaultValue when the variable is unset or not an integer.
func envInt(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func envFloat(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// envBool accepts 1, true, yes, y and on (any case) as true. Any other set
// value is false.
func envBool(key string, defaultValue bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
