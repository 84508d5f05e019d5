// Package feedback collects user-facing notices and navigation requests raised
// while a request is being served. Components deep in the call chain (the
// backend interceptor, the auth flow) push onto the request's Sink; the HTTP
// layer drains it into toasts, flash cookies and redirects.
package feedback

import (
	"context"
	"strings"
	"sync"
)

// Kind classifies notice presentation.
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindSuccess, KindInfo, KindWarning, KindError:
		return true
	}
	return false
}

// Notice is one toast-style message.
type Notice struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Sink accumulates notices and at most one redirect for a single request.
type Sink struct {
	mu       sync.Mutex
	notices  []Notice
	redirect string
}

// NewSink returns an empty sink.
func NewSink() *Sink { return &Sink{} }

// Notify appends a notice. Blank messages, unknown kinds and exact repeats
// of an earlier notice are dropped.
func (s *Sink) Notify(kind Kind, msg string) {
	if s == nil {
		return
	}
	msg = strings.TrimSpace(msg)
	if msg == "" || !kind.Valid() {
		return
	}
	n := Notice{Kind: kind, Message: msg}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.notices {
		if existing == n {
			return
		}
	}
	s.notices = append(s.notices, n)
}

func (s *Sink) Success(msg string) { s.Notify(KindSuccess, msg) }
func (s *Sink) Info(msg string)    { s.Notify(KindInfo, msg) }
func (s *Sink) Warning(msg string) { s.Notify(KindWarning, msg) }
func (s *Sink) Error(msg string)   { s.Notify(KindError, msg) }

// Notices returns a copy of the notices in the order they were raised.
func (s *Sink) Notices() []Notice {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notice, len(s.notices))
	copy(out, s.notices)
	return out
}

// Redirect requests navigation to path. Only the first request wins; it
// reports whether this call set the redirect.
func (s *Sink) Redirect(path string) bool {
	if s == nil || path == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.redirect != "" {
		return false
	}
	s.redirect = path
	return true
}

// RedirectTo returns the requested redirect, if any.
func (s *Sink) RedirectTo() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redirect
}

// Merge copies other's notices and redirect into s. It is used to commit the
// feedback of a sub-operation run against its own sink.
func (s *Sink) Merge(other *Sink) {
	if s == nil || other == nil || s == other {
		return
	}
	for _, n := range other.Notices() {
		s.Notify(n.Kind, n.Message)
	}
	s.Redirect(other.RedirectTo())
}

// Scoped returns a child context with its own sink. Feedback raised under the
// child stays private until the caller merges it.
func Scoped(ctx context.Context) (context.Context, *Sink) {
	return WithSink(ctx)
}

type ctxKey struct{}

// WithSink attaches a fresh sink to ctx and returns both.
func WithSink(ctx context.Context) (context.Context, *Sink) {
	s := NewSink()
	return context.WithValue(ctx, ctxKey{}, s), s
}

// FromContext returns the request's sink. The result may be nil; every Sink
// method is safe to call on a nil receiver.
func FromContext(ctx context.Context) *Sink {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(ctxKey{}).(*Sink)
	return s
}
