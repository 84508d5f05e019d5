package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunstone-mind/sunstone-web/internal/adapters/backend"
	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
	fakes "github.com/sunstone-mind/sunstone-web/internal/mocks/auth"
	"github.com/sunstone-mind/sunstone-web/internal/ports"
	"github.com/sunstone-mind/sunstone-web/internal/service"
	"github.com/sunstone-mind/sunstone-web/internal/service/authstate"
)

func TestAuthPage_DefaultsToSignIn(t *testing.T) {
	app := newTestApp(t, appOptions{})

	resp := app.get("/auth")
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `id="sign-in-form"`)
	assert.NotContains(t, body, `id="sign-up-form"`)
	assert.Contains(t, body, "Continue with your provider")
	assert.NotEmpty(t, app.cookie(SessionCookieName))
	assert.NotEmpty(t, app.cookie(CSRFCookieName))
}

func TestAuthPage_SignUpModeWithPrefill(t *testing.T) {
	app := newTestApp(t, appOptions{noIdentity: true})

	body := readBody(t, app.get("/auth?mode=sign-up&email=ada@example.com"))

	assert.Contains(t, body, `id="sign-up-form"`)
	assert.Contains(t, body, `value="ada@example.com"`)
	assert.NotContains(t, body, "Continue with your provider")
}

func TestSignUp_ValidationNeverReachesBackend(t *testing.T) {
	app := newTestApp(t, appOptions{})

	resp := app.post("/auth/sign-up", url.Values{
		"name":             {"Ada"},
		"email":            {"ada@example.com"},
		"password":         {"secret1"},
		"confirm_password": {"secret2"},
	})
	body := readBody(t, resp)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, domainauth.MsgPasswordMismatch)
	assert.Contains(t, body, `value="Ada"`, "name is echoed back")
	assert.Empty(t, app.api.RegisterCalls())
}

func TestSignUp_SuccessSwitchesToPrefilledSignIn(t *testing.T) {
	app := newTestApp(t, appOptions{})
	app.api.RegisterFunc = func(_ context.Context, req ports.RegisterRequest) (*domainauth.RegisterEnvelope, error) {
		return fakes.RegisteredEnvelope("7", req.Name, req.Email), nil
	}

	resp := app.post("/auth/sign-up", url.Values{
		"name":             {"Ada"},
		"email":            {"ada@example.com"},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/auth?email=ada%40example.com&mode=sign-in", resp.Header.Get("Location"))
	require.Len(t, app.api.RegisterCalls(), 1)
	assert.Equal(t, ports.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"}, app.api.RegisterCalls()[0])

	body := readBody(t, app.get(resp.Header.Get("Location")))
	assert.Contains(t, body, `id="sign-in-form"`)
	assert.Contains(t, body, `value="ada@example.com"`)
	assert.Contains(t, body, service.MsgRegistered)

	var st AuthStatus
	require.NoError(t, json.NewDecoder(app.get("/auth/status").Body).Decode(&st))
	assert.False(t, st.Authenticated, "registration alone does not sign in")
	require.NotNil(t, st.User)
	assert.Equal(t, "7", st.User.ID)
	assert.Equal(t, service.PhaseSuccess, st.Register)
}

func TestSignUp_BackendMessageShownInline(t *testing.T) {
	app := newTestApp(t, appOptions{})
	app.api.RegisterFunc = func(context.Context, ports.RegisterRequest) (*domainauth.RegisterEnvelope, error) {
		return nil, &domainauth.RejectedError{Message: "Email already exists"}
	}

	resp := app.post("/auth/sign-up", url.Values{
		"name": {"Ada"}, "email": {"ada@example.com"}, "password": {"secret1"}, "confirm_password": {"secret1"},
	})
	body := readBody(t, resp)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, "Email already exists")
	assert.Contains(t, body, `id="sign-up-form"`)
}

func TestSignIn_TokenSetsCookieAndNavigates(t *testing.T) {
	app := newTestApp(t, appOptions{})
	app.api.LoginFunc = func(context.Context, ports.LoginRequest) (*domainauth.LoginEnvelope, error) {
		return fakes.LoggedInEnvelope("42", "Ada", "ada@example.com", "tok-abc"), nil
	}

	resp := app.post("/auth/sign-in", url.Values{"email": {"ada@example.com"}, "password": {"secret1"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, service.DashboardPath, resp.Header.Get("Location"))

	c := responseCookie(resp, AuthTokenCookieName)
	require.NotNil(t, c)
	assert.Equal(t, "tok-abc", c.Value)
	assert.Equal(t, 7*24*60*60, c.MaxAge)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.True(t, c.HttpOnly)

	resp = app.get("/auth")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode, "signed-in visitors skip the auth page")

	raw := readBody(t, app.get("/auth/status"))
	assert.NotContains(t, raw, "tok-abc")
	var st AuthStatus
	require.NoError(t, json.Unmarshal([]byte(raw), &st))
	assert.True(t, st.Authenticated)
	assert.Equal(t, "ada@example.com", st.User.Email)
}

func TestSignIn_WithoutTokenStaysOnForm(t *testing.T) {
	app := newTestApp(t, appOptions{})
	app.api.LoginFunc = func(context.Context, ports.LoginRequest) (*domainauth.LoginEnvelope, error) {
		return fakes.LoggedInEnvelope("42", "Ada", "ada@example.com", ""), nil
	}

	resp := app.post("/auth/sign-in", url.Values{"email": {"ada@example.com"}, "password": {"secret1"}})
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, responseCookie(resp, AuthTokenCookieName))
	assert.Contains(t, body, service.MsgNoSessionIssued)
}

func TestSignIn_HTMXErrorRendersPartial(t *testing.T) {
	app := newTestApp(t, appOptions{})
	app.api.LoginFunc = func(context.Context, ports.LoginRequest) (*domainauth.LoginEnvelope, error) {
		return nil, errors.New("connection reset")
	}

	resp := app.post("/auth/sign-in", url.Values{"email": {"ada@example.com"}, "password": {"x"}}, "HX-Request", "true")
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, service.MsgLoginFailed)
	assert.NotContains(t, body, "<html")
}

func TestSignIn_BackendUnauthorizedRedirectsOnce(t *testing.T) {
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid credentials"}`))
	}))
	t.Cleanup(backendSrv.Close)

	client, err := backend.NewClient(backend.Config{
		BaseURL: backendSrv.URL,
		Logger:  discardLogger(),
		OnUnauthorized: func(ctx context.Context) {
			if sess := authstate.SessionFromContext(ctx); sess != nil {
				sess.Auth.ClearAuth()
			}
		},
	})
	require.NoError(t, err)
	app := newTestApp(t, appOptions{api: backend.NewAuthAPI(client, "/auth", slog.Default())})

	resp := app.post("/auth/sign-in", url.Values{"email": {"ada@example.com"}, "password": {"wrong"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, backend.SignInPath, resp.Header.Get("Location"))

	resp = app.get(resp.Header.Get("Location"))
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "the sign-in page itself does not redirect again")
	assert.Contains(t, body, backend.MsgUnauthorized)
}

func TestLogout_ClearsAuthAndCookies(t *testing.T) {
	app := newTestApp(t, appOptions{})
	app.signIn()
	require.Equal(t, http.StatusOK, app.get("/dashboard").StatusCode)

	resp := app.post("/auth/logout", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, service.AuthPath, resp.Header.Get("Location"))
	c := responseCookie(resp, AuthTokenCookieName)
	require.NotNil(t, c)
	assert.Negative(t, c.MaxAge)

	assert.Contains(t, readBody(t, app.get("/auth")), service.MsgSignedOut)
	resp = app.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, service.AuthPath, resp.Header.Get("Location"))
}

func TestPost_WithoutCSRFTokenIsRejected(t *testing.T) {
	app := newTestApp(t, appOptions{})
	app.get("/auth")

	resp, err := app.client.PostForm(app.srv.URL+"/auth/sign-in", url.Values{"email": {"a@b.c"}, "password": {"x"}})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, app.api.LoginCalls())
}
