package httpx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	sunstone "github.com/sunstone-mind/sunstone-web"
	"github.com/sunstone-mind/sunstone-web/internal/ports"
	"github.com/sunstone-mind/sunstone-web/internal/service"
	"github.com/sunstone-mind/sunstone-web/internal/service/authstate"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Sessions *authstate.Registry
	Auth     *service.AuthFlow
	// Identity is optional; nil disables third-party sign-in.
	Identity ports.IdentityProvider
	Watcher  *service.IdentityWatcher
	Wellness *service.WellnessService
	Cookies  CookieConfig
	// Renderer is optional; when nil templates are loaded from disk in dev
	// mode and from the embedded FS otherwise.
	Renderer    *TemplateRenderer
	BaseURL     string
	Compression *CompressionConfig // nil disables gzip
	IsDev       bool
	Logger      *slog.Logger
}

// NewRouter wires handlers and middleware. Static assets and health checks
// bypass the session layer.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Sessions == nil || services.Auth == nil || services.Watcher == nil || services.Wellness == nil {
		return nil, errors.New("router: sessions, auth, watcher and wellness services are required")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	renderer := services.Renderer
	if renderer == nil {
		var err error
		if renderer, err = defaultRenderer(services.IsDev, logger); err != nil {
			return nil, fmt.Errorf("load templates: %w", err)
		}
	}

	h := &Handlers{
		Sessions: services.Sessions,
		Flow:     services.Auth,
		Identity: services.Identity,
		Watcher:  services.Watcher,
		Wellness: services.Wellness,
		Cookies:  services.Cookies,
		Renderer: renderer,
		BaseURL:  services.BaseURL,
		Logger:   logger,
	}

	app := http.NewServeMux()
	registerAuthRoutes(app, h)
	registerMemberRoutes(app, h, RequireAuthBrowser(services.Cookies))
	app.HandleFunc("GET /{$}", h.Landing)
	app.HandleFunc("/", h.NotFound)

	var appHandler http.Handler = app
	appHandler = BrowserSession(services.Sessions, services.Cookies, logger)(appHandler)
	appHandler = CSRFProtection(services.Cookies)(appHandler)

	root := http.NewServeMux()
	root.Handle("GET /static/", staticHandler(services.IsDev, logger))
	root.HandleFunc("GET /healthz", healthHandler)
	root.HandleFunc("HEAD /healthz", healthHandler)
	root.Handle("/", appHandler)

	var handler http.Handler = root
	if services.Compression != nil {
		cfg := *services.Compression
		if cfg.Logger == nil {
			cfg.Logger = logger
		}
		handler = Compression(cfg)(handler)
	}
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler, nil
}

func registerAuthRoutes(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /auth", h.AuthPage)
	mux.HandleFunc("POST /auth/sign-in", h.SignIn)
	mux.HandleFunc("POST /auth/sign-up", h.SignUp)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/identity/login", h.IdentityLogin)
	mux.HandleFunc("GET "+CallbackPath, h.IdentityCallback)
	mux.HandleFunc("GET /auth/status", h.Status)
}

func registerMemberRoutes(mux *http.ServeMux, h *Handlers, requireAuth func(http.Handler) http.Handler) {
	member := func(fn http.HandlerFunc) http.Handler { return requireAuth(fn) }
	mux.Handle("GET "+service.DashboardPath, member(h.Dashboard))
	mux.Handle("POST "+service.DashboardPath+"/mood", member(h.RecordMood))
	mux.Handle("GET "+JournalPath, member(h.Journal))
	mux.Handle("POST "+JournalPath, member(h.AddJournalEntry))
	mux.Handle("GET "+ProfilePath, member(h.Profile))
}

func defaultRenderer(isDev bool, logger *slog.Logger) (*TemplateRenderer, error) {
	var templateFS fs.FS
	if isDev {
		templateFS = os.DirFS(TemplatePathFromRoot)
	} else {
		sub, err := fs.Sub(sunstone.TemplateFS, TemplatePathFromRoot)
		if err != nil {
			return nil, err
		}
		templateFS = sub
	}
	return NewTemplateRenderer(TemplateRendererConfig{TemplateFS: templateFS, Logger: logger})
}

// staticHandler serves /static/* from disk in dev mode and from the
// embedded FS otherwise.
func staticHandler(isDev bool, logger *slog.Logger) http.Handler {
	var files http.FileSystem = http.Dir(StaticPathFromRoot)
	if !isDev {
		sub, err := fs.Sub(sunstone.StaticFS, StaticPathFromRoot)
		if err != nil {
			logger.Warn("embedded static assets unavailable, serving from disk", "error", err)
		} else {
			files = http.FS(sub)
		}
	}
	fileServer := http.StripPrefix("/static/", http.FileServer(files))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isDev {
			w.Header().Set("Cache-Control", "no-cache")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=3600")
		}
		fileServer.ServeHTTP(w, r)
	})
}
