package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	shared "github.com/telescope-ops/obsadmin/services/internal/config"
)

// Config holds environment-driven settings for the REST API.
type Config struct {
	shared.Config

	Port           int    `env:"PORT"`
	APIPort        int    `env:"API_PORT" envDefault:"8080"`
	BearerToken    string `env:"API_BEARER_TOKEN"`
	MaxUploadBytes int64  `env:"API_MAX_UPLOAD_BYTES" envDefault:"10485760"`
	DefaultLimit   int    `env:"API_DEFAULT_LIMIT" envDefault:"50"`
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	base, err := shared.Load()
	if err != nil {
		return Config{}, err
	}
	return fromBase(base)
}

func fromBase(base shared.Config) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	cfg.Config = base

	if cfg.Port == 0 {
		cfg.Port = cfg.APIPort
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("invalid PORT: %d", cfg.Port)
	}
	if cfg.MaxUploadBytes <= 0 {
		return cfg, fmt.Errorf("invalid API_MAX_UPLOAD_BYTES: %d", cfg.MaxUploadBytes)
	}
	if cfg.DefaultLimit <= 0 {
		return cfg, fmt.Errorf("invalid API_DEFAULT_LIMIT: %d", cfg.DefaultLimit)
	}
	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
