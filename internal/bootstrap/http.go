package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sunstone-mind/sunstone-web/config"
	httpx "github.com/sunstone-mind/sunstone-web/internal/http"
)

const shutdownTimeout = 10 * time.Second

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

// NewHTTPServer builds the router and wraps it in an http.Server with the
// standard timeouts. It does not start listening.
func NewHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	if cfg == nil || cfg.Config == nil || cfg.Services == nil {
		return nil, errors.New("http server config, app config and services are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	var compression *httpx.CompressionConfig
	if appCfg.HTTP.CompressionEnabled {
		logger.Info("HTTP compression enabled", "level", appCfg.HTTP.CompressionLevel)
		compression = &httpx.CompressionConfig{Level: appCfg.HTTP.CompressionLevel}
	}

	handler, err := httpx.NewRouter(httpx.RouterServices{
		Sessions: cfg.Services.Sessions,
		Auth:     cfg.Services.Flow,
		Identity: cfg.Services.Identity,
		Watcher:  cfg.Services.Watcher,
		Wellness: cfg.Services.Wellness,
		Cookies: httpx.CookieConfig{
			Domain:     appCfg.HTTP.CookieDomain,
			Secure:     appCfg.SecureCookies(),
			SessionTTL: appCfg.Session.TTL,
		},
		BaseURL:     appCfg.HTTP.BaseURL,
		Compression: compression,
		IsDev:       appCfg.IsDev,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	addr := appCfg.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}, nil
}

// Serve runs the server on ln and the session sweeper until ctx is
// canceled, then shuts the server down gracefully.
func Serve(ctx context.Context, ln net.Listener, server *http.Server, services *ServiceContainer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		services.Sessions.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return ShutdownHTTPServer(server, logger)
	})

	return g.Wait()
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(server *http.Server, logger *slog.Logger) error {
	if server == nil {
		return nil
	}
	logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.Info("HTTP server stopped")
	return nil
}
