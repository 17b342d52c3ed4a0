package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort      string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseDSN   string `env:"DATABASE_DSN" envDefault:"host=localhost user=postgres password=postgres dbname=bitbites port=5432 sslmode=disable"`
	JWTSecret     string `env:"JWT_SECRET"`
	SessionSecure bool   `env:"SESSION_SECURE" envDefault:"false"`
	TemplateDir   string `env:"TEMPLATE_DIR" envDefault:"./web/templates"`
}

func Load() (*Config, error) {
	// .env is optional, real env vars win either way
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	return cfg, nil
}
