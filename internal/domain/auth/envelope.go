package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedEnvelope is returned when a backend payload does not match the documented envelope.
var ErrMalformedEnvelope = errors.New("malformed backend envelope")

// ID is a backend identifier that may arrive as a JSON string or number.
type ID string

// UnmarshalJSON accepts strings, numbers and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// RegisterData is the account summary returned by a successful registration.
type RegisterData struct {
	UserID  ID     `json:"user_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Profile string `json:"profile"`
}

// User maps the registration payload into the local User shape.
func (d RegisterData) User() User {
	return User{
		ID:      string(d.UserID),
		Name:    d.Name,
		Email:   d.Email,
		Profile: d.Profile,
		Role:    d.Role,
	}
}

// RegisterEnvelope is the response body of POST /auth/register.
type RegisterEnvelope struct {
	Success *bool         `json:"success,omitempty"`
	Message string        `json:"message,omitempty"`
	Data    *RegisterData `json:"data,omitempty"`
	Token   string        `json:"token,omitempty"`
}

// Failed reports an explicit success=false.
func (e *RegisterEnvelope) Failed() bool {
	return e != nil && e.Success != nil && !*e.Success
}

// LoginUser is the user object embedded in a login response.
type LoginUser struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Profile string `json:"profile"`
	Role    string `json:"role"`
}

// User maps the login payload into the local User shape.
func (u LoginUser) User() User {
	return User{
		ID:      string(u.ID),
		Name:    u.Name,
		Email:   u.Email,
		Profile: u.Profile,
		Role:    u.Role,
	}
}

// LoginData carries the user and token of a login response.
type LoginData struct {
	User  *LoginUser `json:"user"`
	Token string     `json:"token"`
}

// LoginEnvelope is the response body of POST /auth/login.
type LoginEnvelope struct {
	Success *bool      `json:"success,omitempty"`
	Message string     `json:"message,omitempty"`
	Data    *LoginData `json:"data,omitempty"`
}

// Failed reports an explicit success=false.
func (e *LoginEnvelope) Failed() bool {
	return e != nil && e.Success != nil && !*e.Success
}

// DecodeRegister parses and checks a registration response body.
func DecodeRegister(body []byte) (*RegisterEnvelope, error) {
	var env RegisterEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}
	if env.Failed() {
		return &env, nil
	}
	if env.Data == nil {
		return nil, fmt.Errorf("%w: register response has no data", ErrMalformedEnvelope)
	}
	return &env, nil
}

// DecodeLogin parses and checks a login response body.
// A token without a user is rejected; a user without a token is allowed and
// simply does not establish a session.
func DecodeLogin(body []byte) (*LoginEnvelope, error) {
	var env LoginEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}
	if env.Failed() {
		return &env, nil
	}
	if env.Data == nil {
		return nil, fmt.Errorf("%w: login response has no data", ErrMalformedEnvelope)
	}
	if env.Data.Token != "" && env.Data.User == nil {
		return nil, fmt.Errorf("%w: login token without user", ErrMalformedEnvelope)
	}
	return &env, nil
}

// RejectedError is a request the backend answered with success=false.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "request rejected by backend"
	}
	return e.Message
}

// BackendText returns the backend-provided message.
func (e *RejectedError) BackendText() string { return e.Message }

type backendTexter interface {
	BackendText() string
}

// BackendMessage returns the message the backend attached to err, or "".
func BackendMessage(err error) string {
	var bt backendTexter
	if errors.As(err, &bt) {
		return strings.TrimSpace(bt.BackendText())
	}
	return ""
}

// IsDuplicateAccount reports whether err says the account already exists.
// The backend message is preferred over the full error text.
func IsDuplicateAccount(err error) bool {
	if err == nil {
		return false
	}
	msg := BackendMessage(err)
	if msg == "" {
		msg = err.Error()
	}
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate")
}
