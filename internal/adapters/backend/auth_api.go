package backend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
	"github.com/sunstone-mind/sunstone-web/internal/ports"
)

// DefaultAuthPrefix is the route prefix of the canonical account endpoints.
const DefaultAuthPrefix = "/auth"

var _ ports.AuthAPI = (*AuthAPI)(nil)

// AuthAPI posts login and registration payloads to the backend.
// It neither retries nor validates.
type AuthAPI struct {
	client *Client
	prefix string
	logger *slog.Logger
}

// NewAuthAPI returns an AuthAPI rooted at prefix (DefaultAuthPrefix when blank).
func NewAuthAPI(client *Client, prefix string, logger *slog.Logger) *AuthAPI {
	prefix = "/" + strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "/" {
		prefix = DefaultAuthPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthAPI{client: client, prefix: prefix, logger: logger.With("component", "auth_api")}
}

func (a *AuthAPI) Login(ctx context.Context, req ports.LoginRequest) (*domainauth.LoginEnvelope, error) {
	body, err := a.client.DoRaw(ctx, Request{Method: http.MethodPost, Path: a.prefix + "/login", Body: req})
	if err != nil {
		return nil, err
	}
	env, err := domainauth.DecodeLogin(body)
	if err != nil {
		a.logMalformed(ctx, "login", err)
		return nil, err
	}
	if env.Failed() {
		return nil, &domainauth.RejectedError{Message: env.Message}
	}
	return env, nil
}

func (a *AuthAPI) Register(ctx context.Context, req ports.RegisterRequest) (*domainauth.RegisterEnvelope, error) {
	body, err := a.client.DoRaw(ctx, Request{Method: http.MethodPost, Path: a.prefix + "/register", Body: req})
	if err != nil {
		return nil, err
	}
	env, err := domainauth.DecodeRegister(body)
	if err != nil {
		a.logMalformed(ctx, "register", err)
		return nil, err
	}
	if env.Failed() {
		return nil, &domainauth.RejectedError{Message: env.Message}
	}
	return env, nil
}

func (a *AuthAPI) logMalformed(ctx context.Context, op string, err error) {
	if errors.Is(err, domainauth.ErrMalformedEnvelope) {
		a.logger.WarnContext(ctx, "rejected backend payload", "operation", op, "error", err)
	}
}
