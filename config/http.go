package config

import (
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the public URL of the application (e.g., "https://app.example.com").
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain. Public suffixes are rejected.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// CompressionEnabled enables gzip compression for text-based assets.
	CompressionEnabled bool `env:"HTTP_COMPRESSION_ENABLED" envDefault:"false"`

	// CompressionLevel is the gzip compression level (1-9).
	// Default is 6 (standard gzip default).
	CompressionLevel int `env:"HTTP_COMPRESSION_LEVEL" envDefault:"6"`

	// RejectedCookieDomain records a cookie domain dropped by Sanitize so startup can log it.
	RejectedCookieDomain string
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	// Clamp compression level to valid gzip range (1-9)
	if h.CompressionLevel < 1 {
		h.CompressionLevel = 1
	}
	if h.CompressionLevel > 9 {
		h.CompressionLevel = 9
	}

	h.BaseURL = strings.TrimRight(strings.TrimSpace(h.BaseURL), "/")

	domain := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h.CookieDomain)), ".")
	if domain != "" && !validCookieDomain(domain) {
		h.RejectedCookieDomain = h.CookieDomain
		domain = ""
	}
	h.CookieDomain = domain
}

// validCookieDomain rejects IP literals, bare public suffixes ("com", "co.uk")
// and hosts without a registrable domain.
func validCookieDomain(domain string) bool {
	if domain == "localhost" {
		return true
	}
	if net.ParseIP(domain) != nil {
		return false
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		return false
	}
	return strings.HasSuffix(domain, etld1)
}
