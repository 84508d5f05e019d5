package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/sunstone-mind/sunstone-web/internal/adapters/backend"
)

// Cookie names.
const (
	SessionCookieName       = "session_id"
	AuthTokenCookieName     = backend.AuthCookieName
	OAuthStateCookieName    = "oauth_state"
	OAuthNonceCookieName    = "oauth_nonce"
	IdentityOptInCookieName = "identity_optin"
)

const (
	defaultSessionMaxAge = 7 * 24 * time.Hour
	oauthCookieMaxAge    = 10 * time.Minute

	// authTokenMaxAge is fixed. SESSION_TTL does not apply to authToken.
	authTokenMaxAge = 7 * 24 * time.Hour
)

// CookieConfig holds the attributes shared by every cookie the app sets.
type CookieConfig struct {
	Domain string
	// Secure forces the Secure attribute. It is on outside dev mode.
	Secure bool
	// SessionTTL bounds session_id. Defaults to seven days.
	SessionTTL time.Duration
}

func (c CookieConfig) sessionMaxAge() int {
	if c.SessionTTL <= 0 {
		return int(defaultSessionMaxAge.Seconds())
	}
	return int(c.SessionTTL.Seconds())
}

// secure reports whether a cookie for r should carry the Secure attribute.
func (c CookieConfig) secure(r *http.Request) bool {
	return c.Secure || r.TLS != nil || isForwardedHTTPS(r)
}

// setSession issues the browser session cookie.
func (c CookieConfig) setSession(w http.ResponseWriter, r *http.Request, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   c.sessionMaxAge(),
	})
}

// setAuthToken stores the backend session token. Secure follows the
// configured mode only, so local http development keeps working.
func (c CookieConfig) setAuthToken(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthTokenCookieName,
		Value:    token,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(authTokenMaxAge.Seconds()),
		Expires:  time.Now().Add(authTokenMaxAge),
	})
}

// setShortLived stores a value for the duration of a third-party sign-in.
func (c CookieConfig) setShortLived(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(oauthCookieMaxAge.Seconds()),
	})
}

// clear expires a cookie, mirroring the attributes it was set with.
func (c CookieConfig) clear(w http.ResponseWriter, r *http.Request, name string) {
	sameSite := http.SameSiteLaxMode
	if name == AuthTokenCookieName {
		sameSite = http.SameSiteStrictMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: sameSite,
	})
}

func (c CookieConfig) clearOAuth(w http.ResponseWriter, r *http.Request) {
	c.clear(w, r, OAuthStateCookieName)
	c.clear(w, r, OAuthNonceCookieName)
	c.clear(w, r, IdentityOptInCookieName)
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// isForwardedHTTPS checks if the request was forwarded over HTTPS.
// Handles comma-separated values in X-Forwarded-Proto header.
func isForwardedHTTPS(r *http.Request) bool {
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}
