package httpx

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sunstone-mind/sunstone-web/internal/domain/feedback"
	apperrors "github.com/sunstone-mind/sunstone-web/internal/errors"
	"github.com/sunstone-mind/sunstone-web/internal/ports"
	"github.com/sunstone-mind/sunstone-web/internal/service"
	"github.com/sunstone-mind/sunstone-web/internal/service/authstate"
)

// ToastEvent is the client-side event fired for notices on htmx responses.
const ToastEvent = "showToast"

// PageMeta contains metadata for rendering a page.
type PageMeta struct {
	Title       string
	CurrentPage string
}

// PageData is the value every page template receives. Data holds the
// page-specific view model.
type PageData struct {
	Title       string
	CurrentPage string
	CSRFToken   string
	Notices     []feedback.Notice
	Authorized  bool
	UserName    string
	Data        any
}

// Handlers serves the browser-facing routes.
type Handlers struct {
	Sessions *authstate.Registry
	Flow     *service.AuthFlow
	// Identity is nil when third-party sign-in is disabled.
	Identity ports.IdentityProvider
	Watcher  *service.IdentityWatcher
	Wellness *service.WellnessService
	Cookies  CookieConfig
	Renderer *TemplateRenderer
	// BaseURL is the public origin used to build the identity callback URL.
	// When empty it is derived from the request.
	BaseURL string
	Logger  *slog.Logger
}

func (h *Handlers) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// render drains the request's feedback into the response and renders the page.
// A redirect requested by a deeper layer (a backend 401) wins over rendering.
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, meta PageMeta, status int, data any) {
	sink := feedback.FromContext(r.Context())
	if target := sink.RedirectTo(); target != "" {
		h.redirect(w, r, target)
		return
	}

	h.syncAuthCookie(w, r)
	notices := append(h.Cookies.readFlash(w, r), sink.Notices()...)
	sess := authstate.SessionFromContext(r.Context())
	pd := PageData{
		Title:       meta.Title,
		CurrentPage: meta.CurrentPage,
		CSRFToken:   GetCSRFToken(r),
		Notices:     notices,
		Data:        data,
	}
	if sess != nil {
		rec := sess.Record()
		pd.Authorized = rec.Authorized()
		if pd.Authorized {
			pd.UserName = rec.DisplayName()
		}
	}

	var err error
	if WantsPartial(r) {
		if len(notices) > 0 {
			SetHXTrigger(w, ToastEvent, map[string]any{"notices": notices})
		}
		if status >= http.StatusBadRequest && status != http.StatusNotFound {
			// htmx does not swap error responses by default.
			status = http.StatusOK
		}
		err = h.Renderer.RenderPartial(w, status, pd)
	} else {
		err = h.Renderer.RenderFull(w, status, pd)
	}
	if err != nil {
		h.logger().ErrorContext(r.Context(), "render page failed", "page", meta.CurrentPage, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// redirect carries pending notices over a flash cookie and navigates.
// A sink redirect set earlier in the request takes priority over target.
func (h *Handlers) redirect(w http.ResponseWriter, r *http.Request, target string) {
	sink := feedback.FromContext(r.Context())
	if requested := sink.RedirectTo(); requested != "" {
		target = requested
	}
	h.syncAuthCookie(w, r)
	h.Cookies.writeFlash(w, r, sink.Notices())
	redirectTo(w, r, target)
}

// syncAuthCookie expires a leftover authToken cookie once the session is no
// longer authenticated, for example after a backend 401.
func (h *Handlers) syncAuthCookie(w http.ResponseWriter, r *http.Request) {
	sess := authstate.SessionFromContext(r.Context())
	if sess == nil || cookieValue(r, AuthTokenCookieName) == "" {
		return
	}
	if !sess.Auth.Snapshot().IsAuthenticated {
		h.Cookies.clear(w, r, AuthTokenCookieName)
	}
}

// errorStatus maps an error onto the status of a re-rendered form.
func errorStatus(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return http.StatusUnprocessableEntity
	case apperrors.IsConflict(err):
		return http.StatusConflict
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	case apperrors.IsUpstream(err):
		return http.StatusBadGateway
	case apperrors.IsTimeout(err):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// signInURL builds the sign-in page URL with the email pre-filled.
func signInURL(email string) string {
	q := url.Values{"mode": {"sign-in"}}
	if email = strings.TrimSpace(email); email != "" {
		q.Set("email", email)
	}
	return service.AuthPath + "?" + q.Encode()
}

func mustSession(r *http.Request) *authstate.Session {
	sess := authstate.SessionFromContext(r.Context())
	if sess == nil {
		panic("httpx: route mounted without BrowserSession middleware")
	}
	return sess
}
