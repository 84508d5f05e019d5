package httpx

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/sunstone-mind/sunstone-web/internal/domain/feedback"
	"github.com/sunstone-mind/sunstone-web/internal/service"
	"github.com/sunstone-mind/sunstone-web/internal/service/authstate"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			}
			if sess := authstate.SessionFromContext(r.Context()); sess != nil {
				attrs = append(attrs, slog.String("session_id", sess.ID))
			}
			logger.InfoContext(r.Context(), "http", attrs...)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *respWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *respWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacking not supported")
}

func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
						panic(err)
					}
					logger.ErrorContext(r.Context(), "panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// BrowserSession attaches the caller's session and a fresh feedback sink to
// the request context. Unknown or missing session ids get a new session and
// a new session_id cookie.
func BrowserSession(reg *authstate.Registry, cookies CookieConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := cookieValue(r, SessionCookieName)
			sess, err := reg.Open(r.Context(), presented)
			if err != nil {
				logger.ErrorContext(r.Context(), "open browser session", "error", err)
				http.Error(w, "Session store unavailable. Please try again shortly.", http.StatusServiceUnavailable)
				return
			}
			if sess.ID != presented {
				cookies.setSession(w, r, sess.ID)
			}
			ctx, _ := feedback.WithSink(r.Context())
			ctx = authstate.WithSession(ctx, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthBrowser sends visitors without an authorized session to the
// sign-in page. HTMX requests get an HX-Redirect; browsers get a 303.
func RequireAuthBrowser(cookies CookieConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := authstate.SessionFromContext(r.Context())
			if sess != nil && sess.Authorized() {
				next.ServeHTTP(w, r)
				return
			}
			cookies.writeFlash(w, r, []feedback.Notice{{Kind: feedback.KindInfo, Message: MsgSignInRequired}})
			redirectTo(w, r, service.AuthPath)
		})
	}
}

// MsgSignInRequired is flashed when a member page is opened without a session.
const MsgSignInRequired = "Please sign in to continue."

// redirectTo navigates the browser, using HX-Redirect for HTMX requests.
func redirectTo(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMX(r) {
		HTMX(w).Redirect(target)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
