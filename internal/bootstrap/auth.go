package bootstrap

import (
	"context"
	"log/slog"

	"github.com/sunstone-mind/sunstone-web/config"
	"github.com/sunstone-mind/sunstone-web/internal/adapters/devauth"
	"github.com/sunstone-mind/sunstone-web/internal/adapters/oidc"
	"github.com/sunstone-mind/sunstone-web/internal/ports"
)

// IdentityConfig contains configuration for the third-party identity provider.
type IdentityConfig struct {
	Auth   config.AuthConfig
	Logger *slog.Logger
}

// BuildIdentityProvider creates the identity provider for the configured
// auth mode. It returns nil when the mode is not fully configured, which
// disables "continue with provider" without failing startup.
//
//nolint:ireturn // the mode decides which provider implementation is returned.
func BuildIdentityProvider(ctx context.Context, cfg IdentityConfig) ports.IdentityProvider {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		return buildDevIdentity(cfg.Auth.DevAuth, logger)
	case config.AuthModeOAuth:
		return buildOAuthIdentity(ctx, cfg.Auth.OAuth, logger)
	default:
		logger.Warn("unknown auth mode, third-party sign-in disabled", "mode", cfg.Auth.Mode)
		return nil
	}
}

//nolint:ireturn // nil must stay an untyped interface.
func buildDevIdentity(dev config.DevAuthConfig, logger *slog.Logger) ports.IdentityProvider {
	prov, err := devauth.NewProvider(devauth.Config{
		ExternalID: dev.ExternalID,
		FirstName:  dev.FirstName,
		LastName:   dev.LastName,
		Username:   dev.Username,
		Email:      dev.Email,
	})
	if err != nil {
		logger.Warn("failed to create dev identity provider, third-party sign-in disabled", "error", err)
		return nil
	}
	logger.Warn("mock identity provider enabled; do not use in production", "external_id", dev.ExternalID)
	return prov
}

//nolint:ireturn // nil must stay an untyped interface.
func buildOAuthIdentity(ctx context.Context, oauth config.OAuthConfig, logger *slog.Logger) ports.IdentityProvider {
	// Only enable when fully configured
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		logger.Info("oauth identity provider not configured; third-party sign-in disabled",
			"discovery_url_empty", oauth.DiscoveryURL == "",
			"client_id_empty", oauth.ClientID == "",
			"client_secret_empty", oauth.ClientSecret == "",
		)
		return nil
	}

	prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
	})
	if err != nil {
		logger.Warn("failed to create OIDC provider, third-party sign-in disabled", "error", err)
		return nil
	}
	return prov
}
