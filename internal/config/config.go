// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr         string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath           string     `env:"DB_PATH" envDefault:"data/boards.db"`
	LogLevel         slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat        string     `env:"LOG_FORMAT" envDefault:"text"`
	RandomOrgAPIKey  string     `env:"RANDOM_ORG_API_KEY"`
	CORSOrigins      []string   `env:"CORS_ORIGINS" envSeparator:","`
	RateLimitPerHour int        `env:"RATE_LIMIT_PER_HOUR" envDefault:"120"`
	MaxPlayers       float64    `env:"MAX_PLAYERS" envDefault:"12"`
	PublicURL        string     `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	if cfg.MaxPlayers <= 0 {
		return nil, fmt.Errorf("MAX_PLAYERS must be positive, got %v", cfg.MaxPlayers)
	}
	return &cfg, nil
}
