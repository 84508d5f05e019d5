package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
	"github.com/sunstone-mind/sunstone-web/internal/ports"
)

func TestAuthAPI_LoginPostsCanonicalPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		var in ports.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, ports.LoginRequest{Email: "ada@example.com", Password: "secret1"}, in)
		_, _ = w.Write([]byte(`{"success":true,"message":"ok","data":{"user":{"id":3,"name":"Ada","email":"ada@example.com"},"token":"abc"}}`))
	}, nil)

	api := NewAuthAPI(c, "api/auth/", nil)
	env, err := api.Login(context.Background(), ports.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "abc", env.Data.Token)
	assert.Equal(t, "3", env.Data.User.User().ID)
}

func TestAuthAPI_RegisterRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/register", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":false,"message":"duplicate"}`))
	}, nil)

	api := NewAuthAPI(c, "", nil)
	env, err := api.Register(context.Background(), ports.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "x"})
	assert.Nil(t, env)

	var rej *domainauth.RejectedError
	require.ErrorAs(t, err, &rej)
	assert.True(t, domainauth.IsDuplicateAccount(err))
}

func TestAuthAPI_MalformedEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"token":"abc"}}`))
	}, nil)

	_, err := NewAuthAPI(c, "/auth", nil).Login(context.Background(), ports.LoginRequest{Email: "a@b.c", Password: "p"})
	require.ErrorIs(t, err, domainauth.ErrMalformedEnvelope)
}

func TestAuthAPI_ErrorCarriesBackendMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success":false,"message":"User already exists"}`))
	}, nil)

	_, err := NewAuthAPI(c, "/auth", nil).Register(context.Background(), ports.RegisterRequest{})
	require.Error(t, err)
	assert.Equal(t, "User already exists", domainauth.BackendMessage(err))
	assert.True(t, domainauth.IsDuplicateAccount(err))
}

type tokenKey struct{}

func TestAuthAPI_RegisterForwardsSessionToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-9", r.Header.Get("Authorization"))
		ck, err := r.Cookie(AuthCookieName)
		require.NoError(t, err)
		assert.Equal(t, "tok-9", ck.Value)
		_, _ = w.Write([]byte(`{"success":true,"message":"ok","data":{"user_id":7,"name":"Ada","email":"ada@example.com"}}`))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		BaseURL: srv.URL,
		TokenSource: func(ctx context.Context) string {
			tok, _ := ctx.Value(tokenKey{}).(string)
			return tok
		},
	})
	require.NoError(t, err)

	ctx := context.WithValue(context.Background(), tokenKey{}, "tok-9")
	_, err = NewAuthAPI(c, "", nil).Register(ctx, ports.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "x"})
	require.NoError(t, err)
}

func TestClient_ExplicitTokenWinsOverSource(t *testing.T) {
	var sourced bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer explicit", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		BaseURL: srv.URL,
		TokenSource: func(context.Context) string {
			sourced = true
			return "from-source"
		},
	})
	require.NoError(t, err)

	require.NoError(t, c.Do(context.Background(), Request{Path: "/ping", Token: "explicit"}, nil))
	assert.False(t, sourced)
}

func TestClient_EmptySourceSendsNoCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, err := r.Cookie(AuthCookieName)
		assert.ErrorIs(t, err, http.ErrNoCookie)
		w.WriteHeader(http.StatusNoContent)
	}, nil)

	require.NoError(t, c.Do(context.Background(), Request{Path: "/ping"}, nil))
}
