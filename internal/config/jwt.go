package config

import (
	"fmt"
)

// JWTConfig holds configuration for JWT token generation and validation.
type JWTConfig struct {
	Secret          string
	Issuer          string
	ExpirationHours int
}

// NewJWTConfig builds a JWT configuration from the auth settings.
// The secret is required; expiration defaults to 24 hours.
func NewJWTConfig(auth AuthConfig) (*JWTConfig, error) {
	cfg := &JWTConfig{
		Secret:          auth.JWTSecret,
		Issuer:          auth.Issuer,
		ExpirationHours: auth.ExpirationHours,
	}
	if cfg.ExpirationHours == 0 {
		cfg.ExpirationHours = 24
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("auth.jwt_secret is required but not set (INTERNX_AUTH_JWT_SECRET)")
	}
	if len(c.Secret) < 16 {
		return fmt.Errorf("auth.jwt_secret must be at least 16 characters, got %d", len(c.Secret))
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("auth.expiration_hours must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
