package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunstone-mind/sunstone-web/internal/adapters/memory"
	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
	fakes "github.com/sunstone-mind/sunstone-web/internal/mocks/auth"
	"github.com/sunstone-mind/sunstone-web/internal/ports"
	"github.com/sunstone-mind/sunstone-web/internal/service"
	"github.com/sunstone-mind/sunstone-web/internal/service/authstate"
)

type appOptions struct {
	api         ports.AuthAPI
	identity    ports.IdentityProvider
	noIdentity  bool
	repo        ports.SessionRepository
	compression *CompressionConfig
}

type testApp struct {
	t        *testing.T
	srv      *httptest.Server
	client   *http.Client
	api      *fakes.StubAuthAPI
	idp      *fakes.MockIdentityProvider
	sessions *authstate.Registry
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func requireRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	if _, err := os.Stat(TemplatePathFromTest); err != nil {
		t.Skipf("templates not found at %s", TemplatePathFromTest)
	}
	r, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: os.DirFS(TemplatePathFromTest), Logger: discardLogger()})
	require.NoError(t, err)
	return r
}

func newTestApp(t *testing.T, opts appOptions) *testApp {
	t.Helper()
	logger := discardLogger()
	app := &testApp{t: t}

	api := opts.api
	if api == nil {
		app.api = &fakes.StubAuthAPI{}
		api = app.api
	}
	var idp ports.IdentityProvider
	if !opts.noIdentity {
		idp = opts.identity
		if idp == nil {
			app.idp = fakes.NewMockIdentityProvider()
			idp = app.idp
		}
	}
	repo := opts.repo
	if repo == nil {
		repo = memory.NewSessionRepository(0)
	}

	flow := service.NewAuthFlow(service.AuthFlowOptions{API: api, Logger: logger})
	app.sessions = authstate.NewRegistry(authstate.RegistryOptions{Repo: repo, Logger: logger, OnEvict: flow.Forget})
	handler, err := NewRouter(RouterServices{
		Sessions: app.sessions,
		Auth:     flow,
		Identity: idp,
		Watcher: service.NewIdentityWatcher(service.IdentityWatcherOptions{
			API:    api,
			Ledger: memory.NewIdentityLedger(),
			Logger: logger,
		}),
		Wellness: service.NewWellnessService(service.WellnessServiceOptions{
			CheckIns: memory.NewCheckInRepository(),
			Journal:  memory.NewJournalRepository(),
			Logger:   logger,
		}),
		Renderer:    requireRenderer(t),
		Compression: opts.compression,
		Logger:      logger,
	})
	require.NoError(t, err)

	app.srv = httptest.NewServer(handler)
	t.Cleanup(app.srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	app.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return app
}

func (a *testApp) do(req *http.Request) *http.Response {
	a.t.Helper()
	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (a *testApp) get(path string, headers ...string) *http.Response {
	a.t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, a.srv.URL+path, nil)
	require.NoError(a.t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return a.do(req)
}

// post submits a form with the CSRF token, fetching one first if needed.
func (a *testApp) post(path string, form url.Values, headers ...string) *http.Response {
	a.t.Helper()
	if a.cookie(CSRFCookieName) == "" {
		a.get("/auth")
	}
	if form == nil {
		form = url.Values{}
	}
	form.Set(CSRFFormField, a.cookie(CSRFCookieName))
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, a.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return a.do(req)
}

func (a *testApp) cookie(name string) string {
	u, _ := url.Parse(a.srv.URL)
	for _, c := range a.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func responseCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// signIn logs the test client in through the password form.
func (a *testApp) signIn() {
	a.t.Helper()
	a.api.LoginFunc = func(context.Context, ports.LoginRequest) (*domainauth.LoginEnvelope, error) {
		return fakes.LoggedInEnvelope("42", "Ada", "ada@example.com", "tok-abc"), nil
	}
	resp := a.post("/auth/sign-in", url.Values{"email": {"ada@example.com"}, "password": {"secret1"}})
	require.Equal(a.t, http.StatusSeeOther, resp.StatusCode)
}
