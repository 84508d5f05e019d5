package httpx

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/sunstone-mind/sunstone-web/internal/domain/feedback"
	"github.com/sunstone-mind/sunstone-web/internal/ports"
	"github.com/sunstone-mind/sunstone-web/internal/service"
)

// CallbackPath is where the identity provider returns the browser.
const CallbackPath = "/auth/callback"

// Identity sign-in notices.
const (
	MsgIdentityDisabled = "Third-party sign-in is not configured."
	MsgIdentityFailed   = "Third-party sign-in failed. Please try again."
)

// IdentityLogin serves GET /auth/identity/login. It starts the provider's
// flow and marks the browser as having opted in.
func (h *Handlers) IdentityLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Identity == nil {
		feedback.FromContext(ctx).Warning(MsgIdentityDisabled)
		h.redirect(w, r, service.AuthPath)
		return
	}
	authURL, state, nonce, err := h.Identity.Begin(ctx, ports.BeginInput{RedirectURL: h.callbackURL(r)})
	if err != nil {
		h.logger().ErrorContext(ctx, "begin identity sign-in", "error", err)
		feedback.FromContext(ctx).Error(MsgIdentityFailed)
		h.redirect(w, r, service.AuthPath)
		return
	}
	h.Cookies.setShortLived(w, r, OAuthStateCookieName, state)
	h.Cookies.setShortLived(w, r, OAuthNonceCookieName, nonce)
	h.Cookies.setShortLived(w, r, IdentityOptInCookieName, "1")
	if IsHTMX(r) {
		HTMX(w).Redirect(authURL)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// IdentityCallback serves GET /auth/callback. The verified identity is handed
// to the watcher, which decides between registering and moving on.
func (h *Handlers) IdentityCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)
	sink := feedback.FromContext(ctx)

	q := r.URL.Query()
	state := cookieValue(r, OAuthStateCookieName)
	nonce := cookieValue(r, OAuthNonceCookieName)
	optedIn := cookieValue(r, IdentityOptInCookieName) == "1"
	h.Cookies.clearOAuth(w, r)

	if h.Identity == nil {
		sink.Warning(MsgIdentityDisabled)
		h.redirect(w, r, service.AuthPath)
		return
	}
	if e := q.Get("error"); e != "" {
		h.logger().WarnContext(ctx, "identity provider returned error", "error", e, "description", q.Get("error_description"))
		sink.Error(MsgIdentityFailed)
		h.redirect(w, r, service.AuthPath)
		return
	}
	if state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(q.Get("state"))) != 1 {
		h.logger().WarnContext(ctx, "identity callback state mismatch", "session_id", sess.ID)
		sink.Error(MsgIdentityFailed)
		h.redirect(w, r, service.AuthPath)
		return
	}

	identity, err := h.Identity.Exchange(ctx, ports.ExchangeInput{Code: q.Get("code"), State: state, Nonce: nonce})
	if err != nil {
		h.logger().WarnContext(ctx, "identity exchange failed", "session_id", sess.ID, "error", err)
		sink.Error(MsgIdentityFailed)
		h.redirect(w, r, service.AuthPath)
		return
	}

	res, err := h.Watcher.Observe(ctx, service.IdentityEvent{Session: sess, Identity: &identity, OptedIn: optedIn})
	h.logger().InfoContext(ctx, "identity observed", "session_id", sess.ID, "resolution", res.Resolution)
	if err != nil {
		sink.Error(res.Outcome.FormError)
		h.redirect(w, r, signInURL(res.Outcome.PrefillEmail))
		return
	}
	if res.Outcome.Redirect != "" {
		h.redirect(w, r, res.Outcome.Redirect)
		return
	}
	h.redirect(w, r, signInURL(res.Outcome.PrefillEmail))
}

// callbackURL is the absolute callback address for the provider.
func (h *Handlers) callbackURL(r *http.Request) string {
	if base := strings.TrimRight(h.BaseURL, "/"); base != "" {
		return base + CallbackPath
	}
	scheme := "http"
	if r.TLS != nil || isForwardedHTTPS(r) {
		scheme = "https"
	}
	return scheme + "://" + r.Host + CallbackPath
}
