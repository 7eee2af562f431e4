package taskvault

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

// Config is the immutable process configuration, sourced from the
// environment once at startup and passed into constructors rather than
// looked up globally.
type Config struct {
	Addr            string `env:"ADDR" envDefault:":3000"`
	DatabaseURL     string `env:"DATABASE_URL"`
	StoragePath     string `env:"STORAGE_PATH"`
	JWTSecret       string `env:"JWT_SECRET"`
	JWTIssuer       string `env:"JWT_ISSUER" envDefault:"taskvault"`
	TokenTTLSeconds int    `env:"JWT_EXPIRES_IN" envDefault:"604800"`
	BcryptCost      int    `env:"BCRYPT_COST" envDefault:"10"`
}

// LoadConfig parses configuration from the environment. There is no
// fallback signing secret: a deployment without JWT_SECRET refuses to
// start rather than issue tokens anyone can forge.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.DatabaseURL == "" && cfg.StoragePath == "" {
		return nil, errors.New("one of DATABASE_URL or STORAGE_PATH is required")
	}
	if cfg.TokenTTLSeconds <= 0 {
		return nil, errors.New("JWT_EXPIRES_IN must be a positive number of seconds")
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &cfg, nil
}

// TokenTTL returns the configured token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLSeconds) * time.Second
}
