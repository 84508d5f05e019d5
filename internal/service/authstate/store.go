// Package authstate holds the per-browser-session auth record: who is signed
// in and with which token. A Store is an explicit, injectable container; the
// Registry keeps one per browser session and persists every write.
package authstate

import (
	"errors"
	"sync"

	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
)

var (
	// ErrStaleWrite is returned when a ticket was superseded by a newer request or by a reset.
	ErrStaleWrite = errors.New("authstate: stale write dropped")
	// ErrTokenRequired is returned by SetAuthLogin when no token is supplied.
	ErrTokenRequired = errors.New("authstate: login requires a token")
)

// Store is an observable auth record. All three State fields change together.
// Subscribers are called synchronously, in write order, and must not write
// back into the same Store.
type Store struct {
	mu    sync.Mutex
	state domainauth.State
	seq   uint64 // last ticket issued
	epoch uint64 // bumped by every write that is not made through a ticket

	subs    map[int]func(domainauth.State)
	nextSub int

	notifyMu sync.Mutex
}

// NewStore returns a store seeded with initial.
func NewStore(initial domainauth.State) *Store {
	return &Store{
		state: initial.Clone(),
		subs:  make(map[int]func(domainauth.State)),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() domainauth.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// SetAuth overwrites user and token; IsAuthenticated is recomputed.
// Outstanding tickets become stale.
func (s *Store) SetAuth(user *domainauth.User, token string) {
	s.mu.Lock()
	s.epoch++
	s.apply(domainauth.NewState(user, token))
}

// SetAuthLogin commits a signed-in user. A blank token is rejected.
func (s *Store) SetAuthLogin(user domainauth.User, token string) error {
	if token == "" {
		return ErrTokenRequired
	}
	s.SetAuth(&user, token)
	return nil
}

// ClearAuth resets the record to empty. It is idempotent and invalidates
// outstanding tickets, so a response that lands after sign-out is dropped.
func (s *Store) ClearAuth() {
	s.SetAuth(nil, "")
}

// Subscribe registers fn for every subsequent write and returns a function
// that removes it.
func (s *Store) Subscribe(fn func(domainauth.State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Begin issues a ticket for a request that will write its result later.
// Only the most recent ticket may commit, and only if no direct write or
// ClearAuth happened since it was issued.
func (s *Store) Begin() *Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return &Ticket{store: s, seq: s.seq, epoch: s.epoch}
}

// apply commits next and notifies subscribers. s.mu must be held; it is
// released before subscribers run, with notifyMu taken first so that
// notifications keep write order.
func (s *Store) apply(next domainauth.State) {
	s.state = next
	snap := next.Clone()
	subs := make([]func(domainauth.State), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	for _, fn := range subs {
		fn(snap.Clone())
	}
}

// Ticket scopes a pending write to the request that issued it.
type Ticket struct {
	store *Store
	seq   uint64
	epoch uint64
}

// SetAuth commits through the ticket, or returns ErrStaleWrite.
func (t *Ticket) SetAuth(user *domainauth.User, token string) error {
	s := t.store
	s.mu.Lock()
	if t.seq != s.seq || t.epoch != s.epoch {
		s.mu.Unlock()
		return ErrStaleWrite
	}
	s.apply(domainauth.NewState(user, token))
	return nil
}

// SetAuthLogin is the ticket-scoped form of Store.SetAuthLogin.
func (t *Ticket) SetAuthLogin(user domainauth.User, token string) error {
	if token == "" {
		return ErrTokenRequired
	}
	return t.SetAuth(&user, token)
}

// Current reports whether the ticket could still commit.
func (t *Ticket) Current() bool {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.seq == s.seq && t.epoch == s.epoch
}
