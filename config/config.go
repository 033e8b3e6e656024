/*
Package config loads service configuration from the environment.

PURPOSE:
  One place for every tunable: the HTTP listener, the backend base URL,
  the local database path, and the conversion thresholds the eligibility
  gate runs on. Values come from environment variables (optionally via a
  .env file loaded in main) with sensible defaults for local development.

CONVERSION SETTINGS:
  The thresholds mirror the platform backend's own configuration. They
  are advisory here: the backend re-validates every submission with its
  authoritative values, so a drifted local rate cannot mint money - it
  only makes the pre-check wrong.

SEE ALSO:
  - cmd/server/main.go: loads .env then calls Load
  - points/types.go: ConversionConfig consumed by the gate
*/
package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/relayhq/points-engine/points"
)

// Config is the full service configuration.
type Config struct {
	AppEnv         string        `mapstructure:"APP_ENV"`
	HTTPPort       int           `mapstructure:"HTTP_PORT"`
	BackendBaseURL string        `mapstructure:"BACKEND_BASE_URL"`
	DBPath         string        `mapstructure:"DB_PATH"`
	HTTPTimeout    time.Duration `mapstructure:"HTTP_TIMEOUT"`

	MinPointsForWithdrawal int     `mapstructure:"MIN_POINTS_FOR_WITHDRAWAL"`
	ConversionRate         float64 `mapstructure:"POINTS_TO_CEDI_CONVERSION_RATE"`
	MinDaysOnPlatform      int     `mapstructure:"MIN_DAYS_ON_PLATFORM"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("BACKEND_BASE_URL", "http://localhost:5000/api")
	v.SetDefault("DB_PATH", "./data/points.db")
	v.SetDefault("HTTP_TIMEOUT", 30*time.Second)
	v.SetDefault("MIN_POINTS_FOR_WITHDRAWAL", 20)
	v.SetDefault("POINTS_TO_CEDI_CONVERSION_RATE", 0.1)
	v.SetDefault("MIN_DAYS_ON_PLATFORM", 30)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	conv := cfg.Conversion()
	if err := conv.Validate(); err != nil {
		return nil, fmt.Errorf("invalid conversion config: %w", err)
	}
	return &cfg, nil
}

// Conversion returns the eligibility gate's configuration.
func (c *Config) Conversion() points.ConversionConfig {
	return points.ConversionConfig{
		MinPointsForWithdrawal: int64(c.MinPointsForWithdrawal),
		ConversionRate:         decimal.NewFromFloat(c.ConversionRate),
		MinDaysOnPlatform:      c.MinDaysOnPlatform,
	}
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// Logger builds the zap logger for the configured environment:
// human-readable in development, JSON in production.
func (c *Config) Logger() (*zap.Logger, error) {
	if c.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
