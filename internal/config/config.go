package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration
type Config struct {
	ServerPort     string `env:"PORT" envDefault:"8080"`
	DatabaseType   string `env:"DATABASE_TYPE" envDefault:"sqlite"`
	DatabasePath   string `env:"DB_PATH" envDefault:"./sundaytable.db"`
	DatabaseURL    string `env:"DATABASE_URL"`
	MigrationsPath string `env:"MIGRATIONS_PATH"`
	FamiliesFile   string `env:"FAMILIES_FILE"`

	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`

	WindowMonths       int `env:"WINDOW_MONTHS" envDefault:"3"`
	StoreMaxAttempts   int `env:"STORE_MAX_ATTEMPTS" envDefault:"5"`
	SubscriberBuffer   int `env:"SUBSCRIBER_BUFFER" envDefault:"64"`
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`

	SuggestAPIURL  string        `env:"SUGGEST_API_URL" envDefault:"https://api.anthropic.com/v1/messages"`
	SuggestAPIKey  string        `env:"SUGGEST_API_KEY"`
	SuggestModel   string        `env:"SUGGEST_MODEL" envDefault:"claude-sonnet-4-20250514"`
	SuggestTimeout time.Duration `env:"SUGGEST_TIMEOUT" envDefault:"20s"`

	AWSRegion    string `env:"AWS_REGION" envDefault:"us-east-1"`
	SESFromEmail string `env:"SES_FROM_EMAIL"`
	SESFromName  string `env:"SES_FROM_NAME" envDefault:"Sunday Table"`
	AppBaseURL   string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	Debug bool `env:"DEBUG" envDefault:"false"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	switch c.DatabaseType {
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for database type %s", c.DatabaseType)
		}
	}
	if c.WindowMonths < 1 {
		return fmt.Errorf("WINDOW_MONTHS must be at least 1, got %d", c.WindowMonths)
	}
	if c.StoreMaxAttempts < 1 {
		return fmt.Errorf("STORE_MAX_ATTEMPTS must be at least 1, got %d", c.StoreMaxAttempts)
	}
	if c.SubscriberBuffer < 1 {
		return fmt.Errorf("SUBSCRIBER_BUFFER must be at least 1, got %d", c.SubscriberBuffer)
	}
	return nil
}
