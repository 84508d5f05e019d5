// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"
	"time"

	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
)

// BeginInput carries inputs for initiating a third-party sign-in.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// IdentityProvider initiates and completes a third-party sign-in.
type IdentityProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the verified identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// LoginRequest is the canonical login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the canonical registration payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthAPI is the backend's account surface. Implementations neither retry nor validate.
type AuthAPI interface {
	Login(ctx context.Context, req LoginRequest) (*domainauth.LoginEnvelope, error)
	Register(ctx context.Context, req RegisterRequest) (*domainauth.RegisterEnvelope, error)
}

// SessionRepository persists browser session records.
// Get returns an errors.NotFound AppError for unknown ids.
type SessionRepository interface {
	Get(ctx context.Context, id string) (domainauth.SessionRecord, error)
	Save(ctx context.Context, rec domainauth.SessionRecord) error
	Delete(ctx context.Context, id string) error
}

// IdentityLedger remembers which third-party identities were already reconciled
// with the backend, so a repeat sign-in does not re-register.
type IdentityLedger interface {
	Processed(ctx context.Context, externalID string) (bool, error)
	// MarkProcessed records externalID and reports whether this call was the first.
	MarkProcessed(ctx context.Context, externalID string, ttl time.Duration) (bool, error)
	Forget(ctx context.Context, externalID string) error
}
