package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	defaultAuthBaseURL = "http://localhost:8000"
	defaultPort        = "8001"
)

type Config struct {
	AppEnv       string
	Port         string
	AuthBaseURL  string
	DatabaseURL  string
	GeminiAPIKey string
}

func Load() (*Config, error) {
	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))
	cfg.AuthBaseURL = strings.TrimRight(strings.TrimSpace(getEnv("AUTH_BASE_URL", defaultAuthBaseURL)), "/")
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) DatabaseConfigured() bool { return c.DatabaseURL != "" }
func (c *Config) SearchConfigured() bool   { return c.GeminiAPIKey != "" }

func validate(cfg *Config) error {
	if cfg.AuthBaseURL == "" {
		return fmt.Errorf("AUTH_BASE_URL must not be empty")
	}
	if cfg.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}

	if isProdLike(cfg.AppEnv) {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("in prod/release DATABASE_URL must be set")
		}
		if cfg.GeminiAPIKey == "" {
			return fmt.Errorf("in prod/release GEMINI_API_KEY must be set")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
