package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
	"github.com/sunstone-mind/sunstone-web/internal/domain/feedback"
	apperrors "github.com/sunstone-mind/sunstone-web/internal/errors"
	"github.com/sunstone-mind/sunstone-web/internal/observability/metrics"
	"github.com/sunstone-mind/sunstone-web/internal/observability/statsd"
	"github.com/sunstone-mind/sunstone-web/internal/ports"
	"github.com/sunstone-mind/sunstone-web/internal/service/authstate"
)

// Resolutions of an identity event, used for metrics and tests.
const (
	ResolutionRegistered       = "registered"
	ResolutionDuplicate        = "duplicate"
	ResolutionAlreadyProcessed = "already_processed"
	ResolutionFailed           = "failed"
	ResolutionIgnored          = "ignored"
	ResolutionCleared          = "cleared"
)

const defaultLedgerTTL = 30 * 24 * time.Hour

// IdentityEvent reports the identity provider's current user for a session.
// A nil Identity means the provider no longer has a signed-in user.
type IdentityEvent struct {
	Session  *authstate.Session
	Identity *domainauth.Identity
	// OptedIn is set when the user started the flow from the app's
	// "continue with provider" action.
	OptedIn bool
}

// IdentityResult is the watcher's decision for one event.
type IdentityResult struct {
	Outcome    Outcome
	Resolution string
}

// IdentityWatcherOptions groups dependencies for IdentityWatcher.
type IdentityWatcherOptions struct {
	API    ports.AuthAPI
	Ledger ports.IdentityLedger
	// LedgerTTL is how long a reconciled identity is remembered.
	LedgerTTL time.Duration
	Logger    *slog.Logger
	Metrics   statsd.Sink
}

// IdentityWatcher reconciles third-party identities with backend accounts.
// It acts only when a session's identity goes from absent to present. Each
// external id is registered at most once: the ledger remembers processed
// ids across requests and a singleflight group collapses concurrent events.
type IdentityWatcher struct {
	api       ports.AuthAPI
	ledger    ports.IdentityLedger
	ledgerTTL time.Duration
	logger    *slog.Logger
	metrics   statsd.Sink
	inflight  singleflight.Group
}

// NewIdentityWatcher constructs an IdentityWatcher.
func NewIdentityWatcher(opts IdentityWatcherOptions) *IdentityWatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.LedgerTTL
	if ttl <= 0 {
		ttl = defaultLedgerTTL
	}
	return &IdentityWatcher{
		api:       opts.API,
		ledger:    opts.Ledger,
		ledgerTTL: ttl,
		logger:    logger.With("component", "identity_watcher"),
		metrics:   opts.Metrics,
	}
}

type reconcileResult struct {
	resolution string
	email      string
	notices    []feedback.Notice
	redirect   string
}

// Observe records ev on the session and reconciles a newly present identity.
func (w *IdentityWatcher) Observe(ctx context.Context, ev IdentityEvent) (IdentityResult, error) {
	sess := ev.Session
	if sess == nil {
		return IdentityResult{}, errors.New("identity event without session")
	}

	// A recorded identity authorizes the session, so only an opted-in
	// sign-in may record one.
	if ev.Identity != nil && !ev.OptedIn {
		if prev := sess.Identity(); prev != nil && prev.ExternalID == ev.Identity.ExternalID {
			return w.done(IdentityResult{Outcome: Outcome{Redirect: DashboardPath}, Resolution: ResolutionIgnored}), nil
		}
		w.logger.InfoContext(ctx, "identity not opted in; not recorded", "session_id", sess.ID, "external_id", ev.Identity.ExternalID)
		return w.done(IdentityResult{Outcome: Outcome{Mode: domainauth.ModeSignIn}, Resolution: ResolutionIgnored}), nil
	}

	prev := sess.SetIdentity(ev.Identity)
	switch {
	case ev.Identity == nil:
		if prev != nil {
			w.logger.InfoContext(ctx, "identity cleared", "session_id", sess.ID, "external_id", prev.ExternalID)
		}
		return w.done(IdentityResult{Outcome: Outcome{Mode: domainauth.ModeSignIn}, Resolution: ResolutionCleared}), nil
	case prev != nil && prev.ExternalID == ev.Identity.ExternalID:
		return w.done(IdentityResult{Outcome: Outcome{Redirect: DashboardPath}, Resolution: ResolutionIgnored}), nil
	}

	id := *ev.Identity
	processed, err := w.ledger.Processed(ctx, id.ExternalID)
	if err != nil {
		w.logger.WarnContext(ctx, "identity ledger lookup failed", "external_id", id.ExternalID, "error", err)
	}
	if processed {
		return w.done(IdentityResult{Outcome: Outcome{Redirect: DashboardPath}, Resolution: ResolutionAlreadyProcessed}), nil
	}

	v, err, shared := w.inflight.Do(id.ExternalID, func() (any, error) {
		return w.reconcile(context.WithoutCancel(ctx), id)
	})
	res, _ := v.(reconcileResult)
	if shared {
		w.logger.DebugContext(ctx, "joined in-flight identity sync", "external_id", id.ExternalID)
	}

	sink := feedback.FromContext(ctx)
	switch res.resolution {
	case ResolutionRegistered:
		for _, n := range res.notices {
			sink.Notify(n.Kind, n.Message)
		}
		return w.done(IdentityResult{
			Outcome:    Outcome{Mode: domainauth.ModeSignIn, PrefillEmail: res.email},
			Resolution: ResolutionRegistered,
		}), nil
	case ResolutionDuplicate:
		return w.done(IdentityResult{Outcome: Outcome{Redirect: DashboardPath}, Resolution: ResolutionDuplicate}), nil
	}

	// Let the next provider sign-in count as a fresh transition so it retries.
	sess.SetIdentity(nil)
	for _, n := range res.notices {
		sink.Notify(n.Kind, n.Message)
	}
	sink.Redirect(res.redirect)
	msg := domainauth.BackendMessage(err)
	if msg == "" {
		msg = MsgRegisterFailed
	}
	return w.done(IdentityResult{
		Outcome:    Outcome{Mode: domainauth.ModeSignIn, PrefillEmail: id.Email, FormError: msg},
		Resolution: ResolutionFailed,
	}), apperrors.Wrap(err, apperrors.ErrCodeUpstream, msg)
}

// reconcile registers the identity. Feedback raised by the backend client is
// captured on a private sink; a duplicate account discards it.
func (w *IdentityWatcher) reconcile(ctx context.Context, id domainauth.Identity) (reconcileResult, error) {
	scoped, sink := feedback.Scoped(ctx)
	start := time.Now()
	env, err := w.api.Register(scoped, ports.RegisterRequest{
		Name:     id.DisplayName(),
		Email:    id.Email,
		Password: id.ExternalID,
	})

	var res reconcileResult
	switch {
	case err == nil:
		res = reconcileResult{resolution: ResolutionRegistered, email: env.Data.Email}
		if res.email == "" {
			res.email = id.Email
		}
		msg := env.Message
		if msg == "" {
			msg = MsgRegistered
		}
		sink.Success(msg)
		res.notices = sink.Notices()
		metrics.EmitMutation(w.metrics, metrics.MutationMetric{Operation: "identity_register", Result: metrics.ResultSuccess, Duration: time.Since(start)})
	case domainauth.IsDuplicateAccount(err):
		res = reconcileResult{resolution: ResolutionDuplicate}
		w.logger.InfoContext(ctx, "identity already registered", "external_id", id.ExternalID)
	default:
		metrics.EmitMutation(w.metrics, metrics.MutationMetric{Operation: "identity_register", Result: metrics.ResultError, Duration: time.Since(start), Err: err})
		w.logger.WarnContext(ctx, "identity registration failed", "external_id", id.ExternalID, "error", err)
		return reconcileResult{resolution: ResolutionFailed, notices: sink.Notices(), redirect: sink.RedirectTo()}, err
	}

	if _, markErr := w.ledger.MarkProcessed(ctx, id.ExternalID, w.ledgerTTL); markErr != nil {
		w.logger.WarnContext(ctx, "identity ledger write failed", "external_id", id.ExternalID, "error", markErr)
	}
	return res, nil
}

func (w *IdentityWatcher) done(r IdentityResult) IdentityResult {
	metrics.EmitIdentitySync(w.metrics, r.Resolution)
	return r
}
