// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrMissingSecret = errors.New("JWT_SECRET is required")

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"72h"`

	// Empty disables security alerts.
	RedisAddr      string `env:"REDIS_ADDR"`
	PayoutProvider string `env:"PAYOUT_PROVIDER" envDefault:"mock"`

	// Creates or promotes the first admin master on start when set.
	BootstrapEmail    string `env:"ADMIN_MASTER_EMAIL"`
	BootstrapUsername string `env:"ADMIN_MASTER_USERNAME"`
	BootstrapPassword string `env:"ADMIN_MASTER_PASSWORD"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

// Load reads an optional .env file and parses the environment.
func Load(files ...string) (Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load(files...)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings the HTTP server cannot start without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	return nil
}

// DSN prefers DATABASE_URL and otherwise assembles one from DB_*.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   net.JoinHostPort(c.DBHost, c.DBPort),
		Path:   "/" + c.DBName,
	}
	return u.String()
}

func (c Config) Addr() string {
	return ":" + c.Port
}
