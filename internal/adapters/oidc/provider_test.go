package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
	"github.com/sunstone-mind/sunstone-web/internal/ports"
)

// fakeIssuer serves discovery, token and userinfo endpoints.
func fakeIssuer(t *testing.T, userinfo map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(DiscoveryDocument{
			Issuer:                srv.URL,
			AuthorizationEndpoint: srv.URL + "/authorize",
			TokenEndpoint:         srv.URL + "/token",
			UserinfoEndpoint:      srv.URL + "/userinfo",
			JwksURI:               srv.URL + "/jwks",
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(userinfo)
	})
	return srv
}

func newTestProvider(t *testing.T, srv *httptest.Server, scope string) *Provider {
	t.Helper()
	p, err := NewProvider(context.Background(), ProviderConfig{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		Scope:        scope,
		DiscoveryURL: srv.URL + "/.well-known/openid-configuration",
	})
	require.NoError(t, err)
	return p
}

func TestNewProvider_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config ProviderConfig
		errMsg string
	}{
		{"missing client ID", ProviderConfig{ClientSecret: "s", RedirectURL: "http://x/cb", DiscoveryURL: "http://x"}, "client ID is required"},
		{"missing client secret", ProviderConfig{ClientID: "c", RedirectURL: "http://x/cb", DiscoveryURL: "http://x"}, "client secret is required"},
		{"missing redirect URL", ProviderConfig{ClientID: "c", ClientSecret: "s", DiscoveryURL: "http://x"}, "redirect URL is required"},
		{"missing discovery URL", ProviderConfig{ClientID: "c", ClientSecret: "s", RedirectURL: "http://x/cb"}, "discovery URL is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(context.Background(), tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewProvider_DefaultScopes(t *testing.T) {
	srv := fakeIssuer(t, nil)
	p := newTestProvider(t, srv, "")
	assert.Equal(t, []string{"openid", "profile", "email"}, p.config.Scopes)
	assert.Equal(t, srv.URL+"/token", p.config.Endpoint.TokenURL)
}

func TestProvider_Begin(t *testing.T) {
	srv := fakeIssuer(t, nil)
	p := newTestProvider(t, srv, "openid profile email")

	authURL, state, nonce, err := p.Begin(context.Background(), ports.BeginInput{RedirectURL: "http://localhost:8080/auth/callback"})
	require.NoError(t, err)
	assert.Len(t, state, 32)
	assert.Len(t, nonce, 32)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/authorize", u.Scheme+"://"+u.Host+u.Path)
	q := u.Query()
	assert.Equal(t, "test-client", q.Get("client_id"))
	assert.Equal(t, state, q.Get("state"))
	assert.Equal(t, nonce, q.Get("nonce"))
	assert.Equal(t, "code", q.Get("response_type"))

	_, _, _, err = p.Begin(context.Background(), ports.BeginInput{})
	require.Error(t, err)
}

func TestProvider_Exchange_ValidationErrors(t *testing.T) {
	p := newTestProvider(t, fakeIssuer(t, nil), "openid")
	tests := []struct {
		name   string
		input  ports.ExchangeInput
		errMsg string
	}{
		{"missing code", ports.ExchangeInput{State: "s", Nonce: "n"}, "authorization code is required"},
		{"missing state", ports.ExchangeInput{Code: "c", Nonce: "n"}, "state is required"},
		{"missing nonce", ports.ExchangeInput{Code: "c", State: "s"}, "nonce is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Exchange(context.Background(), tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProvider_Exchange_UserInfo(t *testing.T) {
	srv := fakeIssuer(t, map[string]string{
		"sub":                "user_2x",
		"given_name":         "Ada",
		"family_name":        "Lovelace",
		"preferred_username": "ada",
		"email":              "ada@example.com",
		"picture":            "https://img.example.com/ada.png",
	})
	// Without openid the id_token is skipped and claims come from userinfo.
	p := newTestProvider(t, srv, "profile email")

	id, err := p.Exchange(context.Background(), ports.ExchangeInput{Code: "good-code", State: "s", Nonce: "n"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.Identity{
		ExternalID: "user_2x",
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Username:   "ada",
		Email:      "ada@example.com",
		AvatarURL:  "https://img.example.com/ada.png",
	}, id)

	_, err = p.Exchange(context.Background(), ports.ExchangeInput{Code: "bad-code", State: "s", Nonce: "n"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange code for token")
}

func TestProvider_Exchange_MissingIDToken(t *testing.T) {
	p := newTestProvider(t, fakeIssuer(t, nil), "openid email")
	_, err := p.Exchange(context.Background(), ports.ExchangeInput{Code: "good-code", State: "s", Nonce: "n"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id_token")
}

func TestClaims_Fill(t *testing.T) {
	c := claims{Subject: "keep", Email: "keep@example.com"}
	c.fill(claims{Subject: "other", GivenName: "Ada", Email: "other@example.com", Picture: "p"})
	assert.Equal(t, "keep", c.Subject)
	assert.Equal(t, "keep@example.com", c.Email)
	assert.Equal(t, "Ada", c.GivenName)
	assert.Equal(t, "p", c.Picture)
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken(16)
	require.NoError(t, err)
	assert.Len(t, a, 16)
	b, err := RandomToken(16)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	empty, err := RandomToken(0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetIDTokenFromToken(t *testing.T) {
	tok := (&oauth2.Token{}).WithExtra(map[string]any{"id_token": "abc.def.ghi"})
	raw, err := getIDTokenFromToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", raw)

	_, err = getIDTokenFromToken(nil)
	assert.ErrorContains(t, err, "nil token")
}

var _ ports.IdentityProvider = (*Provider)(nil)
