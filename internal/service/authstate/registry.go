package authstate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
	apperrors "github.com/sunstone-mind/sunstone-web/internal/errors"
	"github.com/sunstone-mind/sunstone-web/internal/ports"
)

const (
	defaultIdleTTL        = 30 * time.Minute
	defaultPersistTimeout = 5 * time.Second
	defaultSweepInterval  = time.Minute
)

// RegistryOptions groups dependencies for Registry.
type RegistryOptions struct {
	Repo   ports.SessionRepository
	Logger *slog.Logger
	// IdleTTL is how long an untouched session stays cached in memory.
	IdleTTL time.Duration
	// PersistTimeout bounds each repository write made on behalf of a session.
	PersistTimeout time.Duration
	SweepInterval  time.Duration
	// OnEvict, if set, runs for every session dropped from memory by Sweep
	// or Destroy, outside the registry lock.
	OnEvict func(id string)
}

// Registry keeps one Session (and so one Store) per browser session id.
// Records are loaded lazily from the repository and written back on change.
type Registry struct {
	repo           ports.SessionRepository
	logger         *slog.Logger
	idleTTL        time.Duration
	persistTimeout time.Duration
	sweepInterval  time.Duration
	onEvict        func(id string)
	now            func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	loads    singleflight.Group
}

// NewRegistry constructs a Registry.
func NewRegistry(opts RegistryOptions) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		repo:           opts.Repo,
		logger:         logger.With("component", "authstate"),
		idleTTL:        opts.IdleTTL,
		persistTimeout: opts.PersistTimeout,
		sweepInterval:  opts.SweepInterval,
		onEvict:        opts.OnEvict,
		now:            time.Now,
		sessions:       make(map[string]*Session),
	}
	if r.idleTTL <= 0 {
		r.idleTTL = defaultIdleTTL
	}
	if r.persistTimeout <= 0 {
		r.persistTimeout = defaultPersistTimeout
	}
	if r.sweepInterval <= 0 {
		r.sweepInterval = defaultSweepInterval
	}
	return r
}

// Open returns the session for id. An empty or unknown id yields a fresh
// session with a newly generated id; callers compare Session.ID with the id
// they passed to know whether to reissue the cookie.
func (r *Registry) Open(ctx context.Context, id string) (*Session, error) {
	if id != "" {
		if s := r.cached(id); s != nil {
			return s, nil
		}
		v, err, _ := r.loads.Do(id, func() (any, error) {
			if s := r.cached(id); s != nil {
				return s, nil
			}
			rec, err := r.repo.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			return r.adopt(rec), nil
		})
		switch {
		case err == nil:
			return v.(*Session), nil
		case !apperrors.IsNotFound(err):
			return nil, fmt.Errorf("load session: %w", err)
		}
	}
	return r.adopt(domainauth.SessionRecord{ID: uuid.NewString(), UpdatedAt: r.now().UTC()}), nil
}

// Destroy drops the session from memory and the repository.
func (r *Registry) Destroy(ctx context.Context, id string) error {
	r.mu.Lock()
	if s, ok := r.sessions[id]; ok {
		s.unsubscribe()
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	r.evicted(id)
	if err := r.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Len reports how many sessions are cached in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than IdleTTL and returns how many
// were evicted. Evicted sessions stay in the repository.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)
	var evicted []string
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.lastSeen().Before(cutoff) {
			s.unsubscribe()
			delete(r.sessions, id)
			evicted = append(evicted, id)
		}
	}
	r.mu.Unlock()
	for _, id := range evicted {
		r.evicted(id)
	}
	return len(evicted)
}

func (r *Registry) evicted(id string) {
	if r.onEvict != nil {
		r.onEvict(id)
	}
}

// Run sweeps idle sessions until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.DebugContext(ctx, "evicted idle sessions", "count", n)
			}
		}
	}
}

func (r *Registry) cached(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if ok {
		s.touch(r.now())
	}
	return s
}

// adopt wraps rec in a Session, or returns the one another caller already cached.
func (r *Registry) adopt(rec domainauth.SessionRecord) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[rec.ID]; ok {
		s.touch(r.now())
		return s
	}
	s := &Session{
		ID:       rec.ID,
		Auth:     NewStore(rec.State),
		reg:      r,
		identity: rec.Identity,
		seen:     r.now(),
	}
	s.unsubscribe = s.Auth.Subscribe(func(domainauth.State) { s.persist() })
	r.sessions[rec.ID] = s
	return s
}

// Session is one browser session: its auth Store plus the verified
// third-party identity, if any.
type Session struct {
	ID   string
	Auth *Store

	reg         *Registry
	unsubscribe func()

	mu       sync.Mutex
	identity *domainauth.Identity
	seen     time.Time
}

// Identity returns a copy of the verified third-party identity, or nil.
func (s *Session) Identity() *domainauth.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	cp := *s.identity
	return &cp
}

// SetIdentity replaces the identity (nil clears it), persists the record and
// returns the previous value.
func (s *Session) SetIdentity(id *domainauth.Identity) *domainauth.Identity {
	var next *domainauth.Identity
	if id != nil {
		cp := *id
		next = &cp
	}
	s.mu.Lock()
	prev := s.identity
	s.identity = next
	s.mu.Unlock()
	s.persist()
	return prev
}

// Record returns the persistable view of the session.
func (s *Session) Record() domainauth.SessionRecord {
	rec := domainauth.SessionRecord{ID: s.ID, State: s.Auth.Snapshot(), Identity: s.Identity()}
	s.mu.Lock()
	rec.UpdatedAt = s.seen.UTC()
	s.mu.Unlock()
	return rec
}

// Authorized reports whether the session may open member pages.
func (s *Session) Authorized() bool { return s.Record().Authorized() }

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.seen = now
	s.mu.Unlock()
}

func (s *Session) lastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen
}

// persist writes the record with its own deadline so that a canceled browser
// request does not lose a committed auth change.
func (s *Session) persist() {
	r := s.reg
	s.touch(r.now())
	ctx, cancel := context.WithTimeout(context.Background(), r.persistTimeout)
	defer cancel()
	if err := r.repo.Save(ctx, s.Record()); err != nil {
		r.logger.Error("persist session failed", "session_id", s.ID, "error", err)
	}
}

type sessionCtxKey struct{}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, s)
}

// SessionFromContext returns the request's session, or nil.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionCtxKey{}).(*Session)
	return s
}
