package httpx

import (
	"errors"
	"net/http"
	"strings"

	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
	"github.com/sunstone-mind/sunstone-web/internal/service"
	"github.com/sunstone-mind/sunstone-web/internal/service/authstate"
)

// AuthPageData backs pages/auth.tmpl.
type AuthPageData struct {
	Mode            domainauth.Mode
	Name            string
	Email           string
	FormError       string
	FormField       string
	Pending         bool
	PendingText     string
	IdentityEnabled bool
}

// SignUpMode reports whether the sign-up form is shown.
func (d AuthPageData) SignUpMode() bool { return d.Mode == domainauth.ModeSignUp }

func (h *Handlers) authPage(w http.ResponseWriter, r *http.Request, status int, data AuthPageData) {
	sess := mustSession(r)
	data.IdentityEnabled = h.Identity != nil
	if h.Flow.Pending(sess.ID) {
		data.Pending = true
	}
	if data.PendingText == "" {
		data.PendingText = PendingSignIn
		if data.SignUpMode() {
			data.PendingText = PendingSignUp
		}
	}
	title := "Sign in"
	if data.SignUpMode() {
		title = "Create your account"
	}
	h.render(w, r, PageMeta{Title: title, CurrentPage: PageAuth}, status, data)
}

// AuthPage serves GET /auth. Sessions holding a backend token go straight
// to the dashboard.
func (h *Handlers) AuthPage(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	if sess.Auth.Snapshot().IsAuthenticated {
		h.redirect(w, r, service.DashboardPath)
		return
	}
	q := r.URL.Query()
	h.authPage(w, r, http.StatusOK, AuthPageData{
		Mode:  domainauth.ParseMode(q.Get("mode")),
		Email: strings.TrimSpace(q.Get("email")),
	})
}

// SignIn serves POST /auth/sign-in.
func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	out, err := h.Flow.SignIn(r.Context(), sess, domainauth.SignInForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		h.authFailed(w, r, out, err)
		return
	}
	if out.Token != "" {
		h.Cookies.setAuthToken(w, out.Token)
	}
	if out.Redirect != "" {
		h.redirect(w, r, out.Redirect)
		return
	}
	h.authPage(w, r, http.StatusOK, AuthPageData{Mode: out.Mode, Email: out.PrefillEmail})
}

// SignUp serves POST /auth/sign-up. Success follows post/redirect/get onto
// the sign-in form with the new email pre-filled.
func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := domainauth.SignUpForm{
		Name:            r.PostFormValue("name"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	out, err := h.Flow.SignUp(r.Context(), sess, form)
	if err != nil {
		out.Mode = domainauth.ModeSignUp
		h.authFailed(w, r, out, err, strings.TrimSpace(form.Name))
		return
	}
	h.redirect(w, r, signInURL(out.PrefillEmail))
}

// authFailed re-renders the submitted form. name is echoed back on sign-up.
func (h *Handlers) authFailed(w http.ResponseWriter, r *http.Request, out service.Outcome, err error, name ...string) {
	data := AuthPageData{
		Mode:      out.Mode,
		Email:     out.PrefillEmail,
		FormError: out.FormError,
		FormField: out.FormField,
	}
	if len(name) > 0 {
		data.Name = name[0]
	}
	status := errorStatus(err)
	switch {
	case errors.Is(err, service.ErrSubmissionInFlight):
		status = http.StatusConflict
		data.Pending = true
	case errors.Is(err, authstate.ErrStaleWrite):
		// A newer auth change already landed; show the form as it stands.
		status = http.StatusOK
	}
	h.authPage(w, r, status, data)
}

// Logout serves POST /auth/logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	out := h.Flow.SignOut(r.Context(), sess)
	if out.ClearCookies {
		h.Cookies.clear(w, r, AuthTokenCookieName)
		h.Cookies.clearOAuth(w, r)
	}
	h.redirect(w, r, out.Redirect)
}

// AuthStatus is the JSON body of GET /auth/status. The token never leaves
// the server.
type AuthStatus struct {
	Authenticated bool                 `json:"authenticated"`
	Authorized    bool                 `json:"authorized"`
	User          *domainauth.User     `json:"user"`
	Identity      *domainauth.Identity `json:"identity"`
	Pending       bool                 `json:"pending"`
	Register      service.Phase        `json:"register"`
	Login         service.Phase        `json:"login"`
}

// Status serves GET /auth/status.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	sess := mustSession(r)
	rec := sess.Record()
	WriteJSON(w, http.StatusOK, AuthStatus{
		Authenticated: rec.State.IsAuthenticated,
		Authorized:    rec.Authorized(),
		User:          rec.State.User,
		Identity:      rec.Identity,
		Pending:       h.Flow.Pending(sess.ID),
		Register:      h.Flow.RegisterState(sess.ID).Phase,
		Login:         h.Flow.LoginState(sess.ID).Phase,
	})
}
