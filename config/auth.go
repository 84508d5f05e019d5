package config

import (
	"fmt"
	"net/url"
	"strings"
)

// AuthMode represents the identity provider used for third-party sign-in.
type AuthMode string

const (
	// AuthModeOAuth uses an OpenID Connect provider.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses a fixed development identity (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// DevAuthConfig controls the mock identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	ExternalID string `env:"EXTERNAL_ID" envDefault:"user_dev"`
	FirstName  string `env:"FIRST_NAME"  envDefault:"Dev"`
	LastName   string `env:"LAST_NAME"   envDefault:"User"`
	Username   string `env:"USERNAME"    envDefault:"dev"`
	Email      string `env:"EMAIL"       envDefault:"dev@example.com"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}

// BackendConfig points at the wellness backend REST API.
type BackendConfig struct {
	// APIURL is the fixed base URL every backend call is resolved against.
	APIURL string `env:"API_URL" envDefault:"http://localhost:8081"`

	// AuthPrefix is the route prefix of the login and register endpoints.
	AuthPrefix string `env:"AUTH_PREFIX" envDefault:"/auth"`

	UserAgent string `env:"USER_AGENT" envDefault:"sunstone-web"`
}

// Sanitize trims the base URL and normalizes the auth prefix.
func (b *BackendConfig) Sanitize() {
	b.APIURL = strings.TrimRight(strings.TrimSpace(b.APIURL), "/")
	if b.APIURL == "" {
		b.APIURL = "http://localhost:8081"
	}
	b.AuthPrefix = "/" + strings.Trim(strings.TrimSpace(b.AuthPrefix), "/")
}

// Validate checks the backend URL is absolute.
func (b *BackendConfig) Validate() error {
	u, err := url.Parse(b.APIURL)
	if err != nil {
		return fmt.Errorf("invalid BACKEND_API_URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid BACKEND_API_URL %q: scheme and host are required", b.APIURL)
	}
	return nil
}
