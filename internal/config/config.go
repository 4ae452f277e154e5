/**
 * @description
 * Configuration loader for the Earnings Navigator backend.
 * Reads environment variables (optionally from a .env file), applies defaults and validates.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - github.com/ilyakaznacheev/cleanenv: Typed env parsing with defaults
 *
 * @notes
 * - Fails fast on malformed values (unknown DB scheme, non-positive pool sizes).
 * - Load() returns a fresh Config; nothing is cached at package level.
 */

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	Session SessionConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string `env:"PORT" env-default:"8080"`
	Env  string `env:"GO_ENV" env-default:"development"` // "development", "staging", "production" or "test"

	// Comma separated origins allowed by CORS. Credentials are only allowed for explicit origins.
	AllowOrigins string `env:"CORS_ALLOW_ORIGINS" env-default:"*"`
}

// DBConfig holds relational store settings
type DBConfig struct {
	URL          string        `env:"DATABASE_URL" env-default:"sqlite:///earnings_navigator.db"`
	PoolRecycle  time.Duration `env:"DB_POOL_RECYCLE" env-default:"300s"`
	PrePing      bool          `env:"DB_POOL_PRE_PING" env-default:"true"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
}

// RedisConfig holds Redis settings. An empty URL disables event publishing.
type RedisConfig struct {
	URL string `env:"REDIS_URL" env-default:""`
}

// SessionConfig holds the web process secret
type SessionConfig struct {
	Secret string `env:"SESSION_SECRET" env-default:""`
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (containers inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsDevelopment reports whether the process runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// validate checks values cleanenv cannot express as tags
func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if !hasSupportedScheme(cfg.DB.URL) {
		return fmt.Errorf("DATABASE_URL must start with postgres://, postgresql:// or sqlite://")
	}
	if cfg.DB.PoolRecycle < 0 {
		return fmt.Errorf("DB_POOL_RECYCLE must not be negative")
	}
	if cfg.DB.MaxOpenConns <= 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive")
	}
	if cfg.DB.MaxIdleConns < 0 {
		return fmt.Errorf("DB_MAX_IDLE_CONNS must not be negative")
	}
	switch cfg.Server.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("GO_ENV %q is not one of development, staging, production, test", cfg.Server.Env)
	}
	return nil
}

func hasSupportedScheme(url string) bool {
	for _, prefix := range []string{"postgres://", "postgresql://", "sqlite://"} {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}
