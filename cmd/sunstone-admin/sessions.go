package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"

	redisadapter "github.com/sunstone-mind/sunstone-web/internal/adapters/redis"
	"github.com/sunstone-mind/sunstone-web/internal/bootstrap"
	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
	apperrors "github.com/sunstone-mind/sunstone-web/internal/errors"
)

// sessionStore is the part of the Redis session repository the CLI drives.
type sessionStore interface {
	IDs(ctx context.Context) ([]string, error)
	TTL(ctx context.Context, id string) (time.Duration, error)
	Get(ctx context.Context, id string) (domainauth.SessionRecord, error)
	Delete(ctx context.Context, id string) error
}

type identityForgetter interface {
	Forget(ctx context.Context, externalID string) error
}

type sessionsListOptions struct {
	Limit int
}

type sessionInspectOptions struct {
	ID        string
	ShowToken bool
}

type sessionsPurgeOptions struct {
	ID     string
	All    bool
	DryRun bool
	Yes    bool
}

type identityResetOptions struct {
	ExternalID string
	Yes        bool
}

// withRedis connects Redis, hands the namespaced stores to fn and closes the client.
func withRedis(cmdCtx *commandContext, fn func(ctx context.Context, sessions sessionStore, ledger identityForgetter) error) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultRedisTimeout)
	defer cancel()

	_, redisClient, err := connectInfraWithOptions(&connectInfraOptions{
		Ctx:       ctx,
		Logger:    cmdCtx.Logger,
		Config:    &cmdCtx.Config,
		WantRedis: true,
	})
	if err != nil {
		return err
	}
	if redisClient == nil {
		return errors.New("redis is not configured; set REDIS_URI or the sentinel/cluster options")
	}
	defer func() {
		if closeErr := redisClient.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
		}
	}()

	return fn(ctx, newSessionStore(redisClient, cmdCtx), redisadapter.NewIdentityLedger(
		redisClient, bootstrap.IdentityKeyPrefix(cmdCtx.Config.Redis)))
}

func newSessionStore(client redis.UniversalClient, cmdCtx *commandContext) *redisadapter.SessionRepository {
	return redisadapter.NewSessionRepository(client, redisadapter.SessionRepositoryOptions{
		Prefix: bootstrap.SessionKeyPrefix(cmdCtx.Config.Redis),
		TTL:    cmdCtx.Config.Session.TTL,
	})
}

func runSessionsList(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionsListFlags(args)
	if err != nil {
		return err
	}
	return withRedis(cmdCtx, func(ctx context.Context, sessions sessionStore, _ identityForgetter) error {
		rows, err := collectSessionRows(ctx, sessions, opts.Limit)
		if err != nil {
			return err
		}
		return printSessionTable(os.Stdout, rows)
	})
}

type sessionRow struct {
	ID        string
	Who       string
	Auth      string
	UpdatedAt time.Time
	TTL       time.Duration
}

func collectSessionRows(ctx context.Context, sessions sessionStore, limit int) ([]sessionRow, error) {
	ids, err := sessions.IDs(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	rows := make([]sessionRow, 0, len(ids))
	for _, id := range ids {
		rec, err := sessions.Get(ctx, id)
		if apperrors.IsNotFound(err) {
			// Expired between scan and read.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get session %s: %w", id, err)
		}
		ttl, err := sessions.TTL(ctx, id)
		if apperrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("ttl session %s: %w", id, err)
		}
		rows = append(rows, describeSession(rec, ttl))
	}
	return rows, nil
}

func describeSession(rec domainauth.SessionRecord, ttl time.Duration) sessionRow {
	row := sessionRow{ID: rec.ID, Who: "-", Auth: "anonymous", UpdatedAt: rec.UpdatedAt, TTL: ttl}
	switch {
	case rec.State.IsAuthenticated && rec.State.User != nil:
		row.Auth = "signed-in"
		row.Who = rec.State.User.Email
	case rec.Identity != nil:
		row.Auth = "identity"
		row.Who = rec.Identity.Email
	}
	return row
}

func printSessionTable(w io.Writer, rows []sessionRow) error {
	if len(rows) == 0 {
		return writeln(w, "(no sessions found)")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "ID\tAUTH\tWHO\tUPDATED\tTTL\n"); err != nil {
		return fmt.Errorf("print session header: %w", err)
	}
	for _, r := range rows {
		updated := "-"
		if !r.UpdatedAt.IsZero() {
			updated = r.UpdatedAt.UTC().Format(time.RFC3339)
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Auth, r.Who, updated, renderTTL(r.TTL)); err != nil {
			return fmt.Errorf("print session row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush session table: %w", err)
	}
	return writef(w, "\nTotal sessions: %d\n", len(rows))
}

func runSessionInspect(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionInspectFlags(args)
	if err != nil {
		return err
	}
	return withRedis(cmdCtx, func(ctx context.Context, sessions sessionStore, _ identityForgetter) error {
		return inspectSession(ctx, os.Stdout, sessions, opts)
	})
}

func inspectSession(ctx context.Context, w io.Writer, sessions sessionStore, opts sessionInspectOptions) error {
	rec, err := sessions.Get(ctx, opts.ID)
	if err != nil {
		return fmt.Errorf("get session %s: %w", opts.ID, err)
	}
	if !opts.ShowToken && rec.State.Token != "" {
		rec.State.Token = "[redacted]"
	}
	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := writeln(w, string(out)); err != nil {
		return err
	}
	if ttl, ttlErr := sessions.TTL(ctx, opts.ID); ttlErr == nil {
		return writef(w, "TTL: %s\n", renderTTL(ttl))
	}
	return nil
}

func runSessionsPurge(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionsPurgeFlags(args)
	if err != nil {
		return err
	}
	if confirmErr := confirmAction(os.Stdin, os.Stdout, purgeConfirmOptions{opts: opts}, "delete sessions"); confirmErr != nil {
		return confirmErr
	}
	return withRedis(cmdCtx, func(ctx context.Context, sessions sessionStore, _ identityForgetter) error {
		deleted, err := purgeSessions(ctx, sessions, opts)
		if err != nil {
			return err
		}
		if opts.DryRun {
			return writef(os.Stdout, "Dry-run: would delete %d sessions\n", deleted)
		}
		cmdCtx.Logger.Info("sessions purged", "deleted", deleted)
		return writef(os.Stdout, "Deleted %d sessions\n", deleted)
	})
}

func purgeSessions(ctx context.Context, sessions sessionStore, opts sessionsPurgeOptions) (int, error) {
	ids := []string{opts.ID}
	if opts.All {
		var err error
		if ids, err = sessions.IDs(ctx); err != nil {
			return 0, err
		}
	}
	if opts.DryRun {
		return len(ids), nil
	}
	deleted := 0
	for _, id := range ids {
		if err := sessions.Delete(ctx, id); err != nil {
			return deleted, fmt.Errorf("delete session %s: %w", id, err)
		}
		deleted++
	}
	return deleted, nil
}

type purgeConfirmOptions struct {
	opts sessionsPurgeOptions
}

func (p purgeConfirmOptions) IsDryRun() bool { return p.opts.DryRun }
func (p purgeConfirmOptions) IsYes() bool    { return p.opts.Yes }
func (p purgeConfirmOptions) GetWarning() string {
	if p.opts.All {
		return "WARNING: every stored session will be deleted; all members are signed out."
	}
	return ""
}

func (p purgeConfirmOptions) GetTarget() string {
	if p.opts.All {
		return ""
	}
	return "session " + p.opts.ID
}

func runIdentityReset(cmdCtx *commandContext, args []string) error {
	opts, err := parseIdentityResetFlags(args)
	if err != nil {
		return err
	}
	if confirmErr := confirmAction(os.Stdin, os.Stdout, identityResetConfirmOptions{opts: opts}, "reset the identity ledger"); confirmErr != nil {
		return confirmErr
	}
	return withRedis(cmdCtx, func(ctx context.Context, _ sessionStore, ledger identityForgetter) error {
		if err := ledger.Forget(ctx, opts.ExternalID); err != nil {
			return fmt.Errorf("forget identity: %w", err)
		}
		cmdCtx.Logger.Info("identity ledger entry removed", "external_id", opts.ExternalID)
		return writef(os.Stdout, "Identity %s will be registered again on its next sign-in\n", opts.ExternalID)
	})
}

type identityResetConfirmOptions struct {
	opts identityResetOptions
}

func (i identityResetConfirmOptions) IsDryRun() bool     { return false }
func (i identityResetConfirmOptions) IsYes() bool        { return i.opts.Yes }
func (i identityResetConfirmOptions) GetWarning() string { return "" }
func (i identityResetConfirmOptions) GetTarget() string {
	return "external id " + i.opts.ExternalID
}

func parseSessionsListFlags(args []string) (sessionsListOptions, error) {
	fs := flag.NewFlagSet("sessions-list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts sessionsListOptions
	fs.IntVar(&opts.Limit, "limit", 100, "Maximum number of sessions to show (0 for all)")

	if err := fs.Parse(args); err != nil {
		return sessionsListOptions{}, err
	}
	if opts.Limit < 0 {
		return sessionsListOptions{}, errors.New("--limit cannot be negative")
	}
	return opts, nil
}

func parseSessionInspectFlags(args []string) (sessionInspectOptions, error) {
	fs := flag.NewFlagSet("session-inspect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts sessionInspectOptions
	fs.StringVar(&opts.ID, "id", "", "Session id (the session cookie value)")
	fs.BoolVar(&opts.ShowToken, "show-token", false, "Print the backend token instead of redacting it")

	if err := fs.Parse(args); err != nil {
		return sessionInspectOptions{}, err
	}
	opts.ID = strings.TrimSpace(opts.ID)
	if opts.ID == "" {
		return sessionInspectOptions{}, errors.New("--id is required")
	}
	return opts, nil
}

func parseSessionsPurgeFlags(args []string) (sessionsPurgeOptions, error) {
	fs := flag.NewFlagSet("sessions-purge", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts sessionsPurgeOptions
	fs.StringVar(&opts.ID, "id", "", "Session id to delete")
	fs.BoolVar(&opts.All, "all", false, "Delete every stored session")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Report what would be deleted without deleting")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return sessionsPurgeOptions{}, err
	}
	opts.ID = strings.TrimSpace(opts.ID)
	switch {
	case opts.All && opts.ID != "":
		return sessionsPurgeOptions{}, errors.New("--id and --all are mutually exclusive")
	case !opts.All && opts.ID == "":
		return sessionsPurgeOptions{}, errors.New("either --id or --all is required")
	}
	return opts, nil
}

func parseIdentityResetFlags(args []string) (identityResetOptions, error) {
	fs := flag.NewFlagSet("identity-reset", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts identityResetOptions
	fs.StringVar(&opts.ExternalID, "external-id", "", "Identity provider user id")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return identityResetOptions{}, err
	}
	opts.ExternalID = strings.TrimSpace(opts.ExternalID)
	if opts.ExternalID == "" {
		return identityResetOptions{}, errors.New("--external-id is required")
	}
	return opts, nil
}
