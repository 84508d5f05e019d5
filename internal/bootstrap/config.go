package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/sunstone-mind/sunstone-web/config"
)

// InitLogger initializes the structured logger. LOG_LEVEL accepts debug,
// info, warn or error.
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(v string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	if err := cfg.Backend.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LogConfigWarnings reports settings that Sanitize had to override.
func LogConfigWarnings(logger *slog.Logger, cfg *config.AppConfig) {
	if cfg.HTTP.RejectedCookieDomain != "" {
		logger.Warn("ignoring APP_COOKIE_DOMAIN; public suffixes and IP literals are not allowed",
			"cookie_domain", cfg.HTTP.RejectedCookieDomain)
	}
	if cfg.IsDev {
		logger.Warn("development mode: cookies are not marked Secure and assets are served from disk")
	}
}
