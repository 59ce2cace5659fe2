package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultJWTSecret is the development signing secret.
const DefaultJWTSecret = "dev-only-secret-change-in-prod"

// JWTConfig holds configuration for JWT token generation and validation.
type JWTConfig struct {
	Secret          string
	Algorithm       string
	ExpirationHours int
}

// NewJWTConfig creates a new JWT configuration from environment variables.
// It reads JWT_SECRET (default: the development secret), JWT_ALGORITHM
// (default: HS256) and JWT_EXPIRATION_HOURS (default: 24).
func NewJWTConfig() (*JWTConfig, error) {
	secret, ok := os.LookupEnv("JWT_SECRET")
	if !ok {
		secret = DefaultJWTSecret
	}

	algorithm := strings.ToUpper(strings.TrimSpace(os.Getenv("JWT_ALGORITHM")))
	if algorithm == "" {
		algorithm = "HS256"
	}

	expirationStr := strings.TrimSpace(os.Getenv("JWT_EXPIRATION_HOURS"))
	if expirationStr == "" {
		expirationStr = "24" // default
	}

	expirationHours, err := strconv.Atoi(expirationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %v", err)
	}

	config := &JWTConfig{
		Secret:          strings.TrimSpace(secret),
		Algorithm:       algorithm,
		ExpirationHours: expirationHours,
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	switch c.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("JWT_ALGORITHM must be one of HS256, HS384, HS512, got: %s", c.Algorithm)
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
