// Package devauth provides a config-driven identity provider for local development.
package devauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/sunstone-mind/sunstone-web/internal/adapters/oidc"
	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
	"github.com/sunstone-mind/sunstone-web/internal/ports"
)

// CallbackPath is where Begin sends the browser back to.
const CallbackPath = "/auth/callback"

// Config controls the dev identity. ExternalID and Email are required.
type Config struct {
	ExternalID string
	FirstName  string
	LastName   string
	Username   string
	Email      string
}

// Provider short-circuits the OAuth round trip: Begin redirects straight to
// our own callback and Exchange returns the configured identity. Nonces
// issued by Begin are remembered so Exchange rejects forged callbacks.
type Provider struct {
	identity domainauth.Identity

	mu     sync.Mutex
	issued map[string]string // state -> nonce
}

// NewProvider constructs a dev provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.ExternalID == "" {
		return nil, errors.New("dev auth: ExternalID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	return &Provider{
		identity: domainauth.Identity{
			ExternalID: cfg.ExternalID,
			FirstName:  cfg.FirstName,
			LastName:   cfg.LastName,
			Username:   cfg.Username,
			Email:      cfg.Email,
		},
		issued: make(map[string]string),
	}, nil
}

func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := oidc.RandomToken(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := oidc.RandomToken(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	p.mu.Lock()
	p.issued[state] = nonce
	p.mu.Unlock()

	q := url.Values{"code": {"dev"}, "state": {state}}
	return CallbackPath + "?" + q.Encode(), state, nonce, nil
}

func (p *Provider) Exchange(_ context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	p.mu.Lock()
	nonce, ok := p.issued[in.State]
	delete(p.issued, in.State)
	p.mu.Unlock()
	if !ok || nonce != in.Nonce {
		return domainauth.Identity{}, errors.New("dev auth: unknown state or nonce")
	}
	return p.identity, nil
}
