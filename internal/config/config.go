package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const minSecretLength = 32

// Config holds the application configuration.
type Config struct {
	ServerPort          int           `env:"PORT" envDefault:"8080"`
	AppEnv              string        `env:"APP_ENV" envDefault:"development"`
	DatabaseDriver      string        `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseURL         string        `env:"DATABASE_URL" envDefault:"./tasktrack.db"`
	JWTSecret           string        `env:"JWT_SECRET"`
	BcryptCost          int           `env:"BCRYPT_COST" envDefault:"10"`
	CORSAllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT" envDefault:"console"`
	StatsSchedule       string        `env:"STATS_SCHEDULE" envDefault:"@every 1m"`
	MaintenanceSchedule string        `env:"MAINTENANCE_SCHEDULE" envDefault:"0 3 * * *"`
	ShutdownTimeout     time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Load reads configuration from environment variables and applies defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid PORT %d", c.ServerPort)
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.AppEnv != "development" && len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes outside development", minSecretLength)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	return nil
}
