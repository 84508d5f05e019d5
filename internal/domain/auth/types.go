// Package auth contains domain-level types for authentication and browser sessions.
// It is pure and free of framework/adapter concerns.
package auth

import (
	"strings"
	"time"
)

// Mode selects which form the auth page presents.
type Mode string

const (
	ModeSignIn Mode = "sign-in"
	ModeSignUp Mode = "sign-up"
)

// ParseMode maps a query value to a Mode, defaulting to sign-in.
func ParseMode(v string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(v))) == ModeSignUp {
		return ModeSignUp
	}
	return ModeSignIn
}

// User is the locally cached read model of a backend account.
// The backend stays authoritative; this copy is only used for display.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Profile string `json:"profile,omitempty"`
	Role    string `json:"role,omitempty"`
}

// State is the auth snapshot of one browser session.
// IsAuthenticated is derived from User and Token; build values with NewState.
type State struct {
	User            *User  `json:"user"`
	Token           string `json:"token,omitempty"`
	IsAuthenticated bool   `json:"is_authenticated"`
}

// NewState returns a State whose fields are consistent with each other.
// The user is copied so callers cannot mutate a committed snapshot.
func NewState(user *User, token string) State {
	var u *User
	if user != nil {
		cp := *user
		u = &cp
	}
	return State{
		User:            u,
		Token:           token,
		IsAuthenticated: u != nil && token != "",
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	return NewState(s.User, s.Token)
}

// Identity is a third-party identity reported by the identity provider.
// It is owned by the provider; the app maps it onto a backend User by email.
type Identity struct {
	ExternalID string `json:"external_id"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Username   string `json:"username,omitempty"`
	Email      string `json:"email"`
	AvatarURL  string `json:"avatar_url,omitempty"`
}

// DisplayName prefers "first last", then the username, then "User".
func (i Identity) DisplayName() string {
	full := strings.TrimSpace(strings.TrimSpace(i.FirstName) + " " + strings.TrimSpace(i.LastName))
	if full != "" {
		return full
	}
	if u := strings.TrimSpace(i.Username); u != "" {
		return u
	}
	return "User"
}

// SessionRecord is the server-side record persisted for a browser session.
type SessionRecord struct {
	ID        string    `json:"id"`
	State     State     `json:"state"`
	Identity  *Identity `json:"identity,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Authorized reports whether the session may open member pages: either the
// backend issued a token, or a third-party identity was verified.
func (r SessionRecord) Authorized() bool {
	return r.State.IsAuthenticated || r.Identity != nil
}

// OwnerID returns the key wellness data is stored under for this session.
func (r SessionRecord) OwnerID() string {
	if r.State.User != nil && r.State.User.ID != "" {
		return r.State.User.ID
	}
	if r.Identity != nil && r.Identity.ExternalID != "" {
		return "ext:" + r.Identity.ExternalID
	}
	return ""
}

// DisplayName returns the best name for greeting the session's user.
func (r SessionRecord) DisplayName() string {
	if r.State.User != nil && strings.TrimSpace(r.State.User.Name) != "" {
		return r.State.User.Name
	}
	if r.Identity != nil {
		return r.Identity.DisplayName()
	}
	return "friend"
}
