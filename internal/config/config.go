// Package config loads settings from the environment. A .env file in the
// working directory is read first when present.
package config

import (
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const Prefix = "SHOP"

type Config struct {
	Port           int           `envconfig:"PORT" default:"3000"`
	AdminPassword  string        `envconfig:"ADMIN_PASSWORD" default:"snacksawa"`
	MaxActivations int           `envconfig:"MAX_ACTIVATIONS" default:"3"`
	PaymentWindow  time.Duration `envconfig:"PAYMENT_WINDOW" default:"15m"`
	ReaperInterval time.Duration `envconfig:"REAPER_INTERVAL" default:"1m"`
	Location       string        `envconfig:"LOCATION" default:"Local"`
	DatabaseURL    string        `envconfig:"DATABASE_URL"`
	ShutdownGrace  time.Duration `envconfig:"SHUTDOWN_GRACE" default:"10s"`

	Log      LogConfig      `envconfig:"LOG"`
	Security SecurityConfig `envconfig:"SECURITY"`
}

type LogConfig struct {
	Level       string `envconfig:"LEVEL" default:"info"`
	Format      string `envconfig:"FORMAT" default:"json"`
	JournalSize int    `envconfig:"JOURNAL_SIZE" default:"1000"`
}

type SecurityConfig struct {
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	ValidateRPS    float64  `envconfig:"VALIDATE_RPS" default:"5"`
	ValidateBurst  int      `envconfig:"VALIDATE_BURST" default:"10"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, errors.Wrap(err, "load config from env")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.MaxActivations < 1 {
		return errors.Errorf("max activations must be positive, got %d", c.MaxActivations)
	}
	if c.PaymentWindow <= 0 {
		return errors.New("payment window must be positive")
	}
	if c.ReaperInterval <= 0 {
		return errors.New("reaper interval must be positive")
	}
	if c.AdminPassword == "" {
		return errors.New("admin password must not be empty")
	}
	if _, err := c.TimeLocation(); err != nil {
		return err
	}
	return nil
}

// TimeLocation is the zone whose calendar date drives the daily counters.
func (c *Config) TimeLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, errors.Wrapf(err, "load location %q", c.Location)
	}
	return loc, nil
}
