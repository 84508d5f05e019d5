// Package memory provides process-local implementations of the persistence
// ports. They back the dev/demo storage mode and are used by tests.
package memory

import (
	"context"
	"sync"
	"time"

	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
	apperrors "github.com/sunstone-mind/sunstone-web/internal/errors"
)

// SessionRepository keeps session records in a map with a sliding TTL.
type SessionRepository struct {
	mu   sync.Mutex
	recs map[string]sessionEntry
	ttl  time.Duration
	now  func() time.Time
}

type sessionEntry struct {
	rec       domainauth.SessionRecord
	expiresAt time.Time
}

// NewSessionRepository returns an empty repository. A non-positive ttl keeps records forever.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	return &SessionRepository{recs: make(map[string]sessionEntry), ttl: ttl, now: time.Now}
}

func (r *SessionRepository) Get(_ context.Context, id string) (domainauth.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.recs[id]
	if !ok {
		return domainauth.SessionRecord{}, apperrors.NotFound("session not found")
	}
	if !e.expiresAt.IsZero() && r.now().After(e.expiresAt) {
		delete(r.recs, id)
		return domainauth.SessionRecord{}, apperrors.NotFound("session expired")
	}
	return cloneRecord(e.rec), nil
}

func (r *SessionRepository) Save(_ context.Context, rec domainauth.SessionRecord) error {
	if rec.ID == "" {
		return apperrors.Validation("session id cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e := sessionEntry{rec: cloneRecord(rec)}
	if r.ttl > 0 {
		e.expiresAt = r.now().Add(r.ttl)
	}
	r.recs[rec.ID] = e
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.recs, id)
	r.mu.Unlock()
	return nil
}

func cloneRecord(rec domainauth.SessionRecord) domainauth.SessionRecord {
	rec.State = rec.State.Clone()
	if rec.Identity != nil {
		id := *rec.Identity
		rec.Identity = &id
	}
	return rec
}

// IdentityLedger records processed external identities with an expiry.
type IdentityLedger struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

// NewIdentityLedger returns an empty ledger.
func NewIdentityLedger() *IdentityLedger {
	return &IdentityLedger{seen: make(map[string]time.Time), now: time.Now}
}

func (l *IdentityLedger) Processed(_ context.Context, externalID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.liveLocked(externalID), nil
}

func (l *IdentityLedger) MarkProcessed(_ context.Context, externalID string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.liveLocked(externalID) {
		return false, nil
	}
	var exp time.Time
	if ttl > 0 {
		exp = l.now().Add(ttl)
	}
	l.seen[externalID] = exp
	return true, nil
}

func (l *IdentityLedger) Forget(_ context.Context, externalID string) error {
	l.mu.Lock()
	delete(l.seen, externalID)
	l.mu.Unlock()
	return nil
}

func (l *IdentityLedger) liveLocked(externalID string) bool {
	exp, ok := l.seen[externalID]
	if !ok {
		return false
	}
	if !exp.IsZero() && l.now().After(exp) {
		delete(l.seen, externalID)
		return false
	}
	return true
}
