package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
	"github.com/sunstone-mind/sunstone-web/internal/domain/feedback"
	apperrors "github.com/sunstone-mind/sunstone-web/internal/errors"
	"github.com/sunstone-mind/sunstone-web/internal/observability/metrics"
	"github.com/sunstone-mind/sunstone-web/internal/observability/statsd"
	"github.com/sunstone-mind/sunstone-web/internal/ports"
	"github.com/sunstone-mind/sunstone-web/internal/service/authstate"
)

// User-facing texts of the auth flow.
const (
	MsgRegistered      = "User registered successfully"
	MsgRegisterFailed  = "Registration failed. Please try again."
	MsgLoginFailed     = "Login failed. Please try again."
	MsgNoSessionIssued = "Signed in, but no session was issued. Please try again."
	MsgSignedOut       = "You have been signed out."
	MsgAlreadyInFlight = "Your request is already being processed."
)

// Navigation targets.
const (
	DashboardPath = "/dashboard"
	AuthPath      = "/auth"
)

const (
	operationLogin    = "login"
	operationRegister = "register"
)

// Outcome tells the HTTP layer what to render or where to go next.
type Outcome struct {
	Mode         domainauth.Mode
	PrefillEmail string
	// FormError is shown inline on the submitted form.
	FormError string
	// FormField names the input FormError belongs to, when known.
	FormField string
	Redirect  string
	// Token, when set, is written to the authToken cookie.
	Token string
	// ClearCookies asks the handler to expire auth cookies.
	ClearCookies bool
}

// AuthFlowOptions groups dependencies for AuthFlow.
type AuthFlowOptions struct {
	API     ports.AuthAPI
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// AuthFlow runs sign-up, sign-in and sign-out against one browser session.
// It is the only place that decides notice text and navigation for these flows.
type AuthFlow struct {
	api      ports.AuthAPI
	logger   *slog.Logger
	metrics  statsd.Sink
	register *Mutation[ports.RegisterRequest, *domainauth.RegisterEnvelope]
	login    *Mutation[ports.LoginRequest, *domainauth.LoginEnvelope]
}

// NewAuthFlow constructs an AuthFlow.
func NewAuthFlow(opts AuthFlowOptions) *AuthFlow {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	f := &AuthFlow{
		api:     opts.API,
		logger:  logger.With("component", "auth_flow"),
		metrics: opts.Metrics,
	}
	f.register = NewMutation(f.api.Register)
	f.login = NewMutation(f.api.Login)
	return f
}

// Pending reports whether a sign-up or sign-in is in flight for the session.
func (f *AuthFlow) Pending(sessionID string) bool {
	return f.register.Pending(sessionID) || f.login.Pending(sessionID)
}

// RegisterState exposes the registration lifecycle for a session.
func (f *AuthFlow) RegisterState(sessionID string) MutationState {
	return f.register.State(sessionID)
}

// LoginState exposes the login lifecycle for a session.
func (f *AuthFlow) LoginState(sessionID string) MutationState {
	return f.login.State(sessionID)
}

// Forget drops the mutation lifecycles kept for a session.
func (f *AuthFlow) Forget(sessionID string) {
	f.register.Reset(sessionID)
	f.login.Reset(sessionID)
}

// SignUp validates the form, registers the account and, on success, records
// the user without a token and switches the page to sign-in with the email
// pre-filled.
func (f *AuthFlow) SignUp(ctx context.Context, sess *authstate.Session, form domainauth.SignUpForm) (Outcome, error) {
	out := Outcome{Mode: domainauth.ModeSignUp, PrefillEmail: strings.TrimSpace(form.Email)}
	if err := domainauth.ValidateSignUp(form); err != nil {
		out.FormError, out.FormField = err.Error(), apperrors.GetField(err)
		return out, err
	}

	// The ticket is taken only once the submission is accepted, so a
	// rejected duplicate cannot supersede the request in flight.
	var ticket *authstate.Ticket
	start := time.Now()
	env, err := f.register.Run(ctx, sess.ID, ports.RegisterRequest{
		Name:     strings.TrimSpace(form.Name),
		Email:    strings.TrimSpace(form.Email),
		Password: form.Password,
	}, func() { ticket = sess.Auth.Begin() })
	if err != nil {
		return f.failed(ctx, out, operationRegister, MsgRegisterFailed, err, time.Since(start))
	}

	user := env.Data.User()
	if err := ticket.SetAuth(&user, ""); err != nil {
		return f.stale(ctx, out, operationRegister, err)
	}
	f.emit(operationRegister, metrics.ResultSuccess, time.Since(start), nil)
	f.logger.InfoContext(ctx, "account registered", "session_id", sess.ID, "user_id", user.ID)

	msg := env.Message
	if strings.TrimSpace(msg) == "" {
		msg = MsgRegistered
	}
	feedback.FromContext(ctx).Success(msg)
	return Outcome{Mode: domainauth.ModeSignIn, PrefillEmail: user.Email}, nil
}

// SignIn validates the form and logs in. A response carrying a token
// establishes the session and navigates to the dashboard; one without a
// token leaves the auth state untouched.
func (f *AuthFlow) SignIn(ctx context.Context, sess *authstate.Session, form domainauth.SignInForm) (Outcome, error) {
	out := Outcome{Mode: domainauth.ModeSignIn, PrefillEmail: strings.TrimSpace(form.Email)}
	if err := domainauth.ValidateSignIn(form); err != nil {
		out.FormError, out.FormField = err.Error(), apperrors.GetField(err)
		return out, err
	}

	var ticket *authstate.Ticket
	start := time.Now()
	env, err := f.login.Run(ctx, sess.ID, ports.LoginRequest{
		Email:    strings.TrimSpace(form.Email),
		Password: form.Password,
	}, func() { ticket = sess.Auth.Begin() })
	if err != nil {
		return f.failed(ctx, out, operationLogin, MsgLoginFailed, err, time.Since(start))
	}

	if env.Data.Token == "" {
		f.emit(operationLogin, metrics.ResultNoop, time.Since(start), nil)
		f.logger.WarnContext(ctx, "login response without token", "session_id", sess.ID)
		feedback.FromContext(ctx).Info(MsgNoSessionIssued)
		return out, nil
	}

	user := env.Data.User.User()
	if err := ticket.SetAuthLogin(user, env.Data.Token); err != nil {
		return f.stale(ctx, out, operationLogin, err)
	}
	f.emit(operationLogin, metrics.ResultSuccess, time.Since(start), nil)
	f.logger.InfoContext(ctx, "signed in", "session_id", sess.ID, "user_id", user.ID)

	if msg := strings.TrimSpace(env.Message); msg != "" {
		feedback.FromContext(ctx).Success(msg)
	}
	return Outcome{Mode: domainauth.ModeSignIn, Redirect: DashboardPath, Token: env.Data.Token}, nil
}

// SignOut clears the session's auth state and identity.
func (f *AuthFlow) SignOut(ctx context.Context, sess *authstate.Session) Outcome {
	sess.Auth.ClearAuth()
	sess.SetIdentity(nil)
	f.logger.InfoContext(ctx, "signed out", "session_id", sess.ID)
	feedback.FromContext(ctx).Info(MsgSignedOut)
	return Outcome{Mode: domainauth.ModeSignIn, Redirect: AuthPath, ClearCookies: true}
}

func (f *AuthFlow) failed(ctx context.Context, out Outcome, op, fallback string, err error, elapsed time.Duration) (Outcome, error) {
	if errors.Is(err, ErrSubmissionInFlight) {
		feedback.FromContext(ctx).Info(MsgAlreadyInFlight)
		return out, err
	}
	f.emit(op, metrics.ResultError, elapsed, err)
	f.logger.WarnContext(ctx, "auth mutation failed", "operation", op, "error", err)

	msg := domainauth.BackendMessage(err)
	if msg == "" {
		msg = fallback
	}
	out.FormError = msg
	return out, apperrors.Wrap(err, apperrors.ErrCodeUpstream, msg)
}

func (f *AuthFlow) stale(ctx context.Context, out Outcome, op string, err error) (Outcome, error) {
	f.emit(op, metrics.ResultStale, 0, err)
	f.logger.WarnContext(ctx, "dropped stale auth response", "operation", op, "error", err)
	return out, err
}

func (f *AuthFlow) emit(op, result string, d time.Duration, err error) {
	metrics.EmitMutation(f.metrics, metrics.MutationMetric{Operation: op, Result: result, Duration: d, Err: err})
}
