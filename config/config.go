package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: identity provider and backend API configuration
//   - database.go: Postgres, Redis and storage selection
//   - http.go: HTTP server and cookie configuration
//   - session.go: browser session lifetimes
type AppConfig struct {
	// IsDev controls development mode behavior (insecure cookies, template reloads).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	Auth    AuthConfig
	Backend BackendConfig `envPrefix:"BACKEND_"`

	// Storage selects where sessions and wellness data live.
	Storage  StorageBackend `env:"STORAGE_BACKEND" envDefault:"memory"`
	Postgres DBConfig       `envPrefix:"DB_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`

	HTTP    HTTPConfig
	Session SessionConfig `envPrefix:"SESSION_"`

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Backend.Sanitize()
	c.Session.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// SecureCookies reports whether cookies should carry the Secure attribute.
func (c *AppConfig) SecureCookies() bool {
	return !c.IsDev
}
