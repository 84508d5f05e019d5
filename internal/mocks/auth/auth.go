// Package auth contains hand-written test doubles for the auth ports.
package auth

import (
	"context"
	"fmt"
	"sync"

	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
	"github.com/sunstone-mind/sunstone-web/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider = (*MockIdentityProvider)(nil)
	_ ports.AuthAPI          = (*StubAuthAPI)(nil)
)

// MockIdentityProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockIdentityProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser domainauth.Identity

	mu        sync.Mutex
	callCount int
}

// NewMockIdentityProvider creates a MockIdentityProvider with sensible defaults.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: DefaultIdentity(),
	}
}

// DefaultIdentity is the identity returned when none is configured.
func DefaultIdentity() domainauth.Identity {
	return domainauth.Identity{
		ExternalID: "mock-user-1",
		FirstName:  "Mock",
		LastName:   "User",
		Email:      "mock.user@example.com",
	}
}

func (m *MockIdentityProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()

	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}
	return authURL, fmt.Sprintf("%s-%d", statePrefix, n), fmt.Sprintf("%s-%d", noncePrefix, n), nil
}

func (m *MockIdentityProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	if m.DefaultUser.ExternalID == "" {
		return DefaultIdentity(), nil
	}
	return m.DefaultUser, nil
}

// StubAuthAPI is a scriptable AuthAPI that records every call.
type StubAuthAPI struct {
	LoginFunc    func(ctx context.Context, req ports.LoginRequest) (*domainauth.LoginEnvelope, error)
	RegisterFunc func(ctx context.Context, req ports.RegisterRequest) (*domainauth.RegisterEnvelope, error)

	mu        sync.Mutex
	logins    []ports.LoginRequest
	registers []ports.RegisterRequest
}

func (s *StubAuthAPI) Login(ctx context.Context, req ports.LoginRequest) (*domainauth.LoginEnvelope, error) {
	s.mu.Lock()
	s.logins = append(s.logins, req)
	s.mu.Unlock()
	if s.LoginFunc == nil {
		return nil, fmt.Errorf("stub: Login not configured")
	}
	return s.LoginFunc(ctx, req)
}

func (s *StubAuthAPI) Register(ctx context.Context, req ports.RegisterRequest) (*domainauth.RegisterEnvelope, error) {
	s.mu.Lock()
	s.registers = append(s.registers, req)
	s.mu.Unlock()
	if s.RegisterFunc == nil {
		return nil, fmt.Errorf("stub: Register not configured")
	}
	return s.RegisterFunc(ctx, req)
}

// LoginCalls returns the login requests seen so far.
func (s *StubAuthAPI) LoginCalls() []ports.LoginRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.LoginRequest(nil), s.logins...)
}

// RegisterCalls returns the register requests seen so far.
func (s *StubAuthAPI) RegisterCalls() []ports.RegisterRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.RegisterRequest(nil), s.registers...)
}

// RegisteredEnvelope builds a successful registration response for email.
func RegisteredEnvelope(id, name, email string) *domainauth.RegisterEnvelope {
	ok := true
	return &domainauth.RegisterEnvelope{
		Success: &ok,
		Message: "User registered successfully",
		Data:    &domainauth.RegisterData{UserID: domainauth.ID(id), Name: name, Email: email, Role: "member"},
	}
}

// LoggedInEnvelope builds a successful login response carrying token.
func LoggedInEnvelope(id, name, email, token string) *domainauth.LoginEnvelope {
	ok := true
	return &domainauth.LoginEnvelope{
		Success: &ok,
		Message: "Login successful",
		Data: &domainauth.LoginData{
			User:  &domainauth.LoginUser{ID: domainauth.ID(id), Name: name, Email: email},
			Token: token,
		},
	}
}
