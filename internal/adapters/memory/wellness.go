package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sunstone-mind/sunstone-web/internal/domain/wellness"
)

// CheckInRepository stores check-ins per owner, oldest first.
type CheckInRepository struct {
	mu    sync.RWMutex
	items map[string][]wellness.CheckIn
	now   func() time.Time
}

func NewCheckInRepository() *CheckInRepository {
	return &CheckInRepository{items: make(map[string][]wellness.CheckIn), now: time.Now}
}

func (r *CheckInRepository) Create(_ context.Context, c wellness.CheckIn) (wellness.CheckIn, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now().UTC()
	}
	r.mu.Lock()
	r.items[c.OwnerID] = append(r.items[c.OwnerID], c)
	r.mu.Unlock()
	return c, nil
}

func (r *CheckInRepository) ListRecent(_ context.Context, ownerID string, limit int) ([]wellness.CheckIn, error) {
	r.mu.RLock()
	all := append([]wellness.CheckIn(nil), r.items[ownerID]...)
	r.mu.RUnlock()
	wellness.SortNewestFirst(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *CheckInRepository) ListSince(_ context.Context, ownerID string, since time.Time) ([]wellness.CheckIn, error) {
	r.mu.RLock()
	var out []wellness.CheckIn
	for _, c := range r.items[ownerID] {
		if !c.CreatedAt.Before(since) {
			out = append(out, c)
		}
	}
	r.mu.RUnlock()
	wellness.SortNewestFirst(out)
	return out, nil
}

func (r *CheckInRepository) Count(_ context.Context, ownerID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items[ownerID]), nil
}

// JournalRepository stores journal entries per owner, oldest first.
type JournalRepository struct {
	mu    sync.RWMutex
	items map[string][]wellness.JournalEntry
	now   func() time.Time
}

func NewJournalRepository() *JournalRepository {
	return &JournalRepository{items: make(map[string][]wellness.JournalEntry), now: time.Now}
}

func (r *JournalRepository) Create(_ context.Context, e wellness.JournalEntry) (wellness.JournalEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}
	e.Tags = append([]wellness.Tag(nil), e.Tags...)
	r.mu.Lock()
	r.items[e.OwnerID] = append(r.items[e.OwnerID], e)
	r.mu.Unlock()
	return e, nil
}

func (r *JournalRepository) ListRecent(_ context.Context, ownerID string, limit int) ([]wellness.JournalEntry, error) {
	r.mu.RLock()
	src := r.items[ownerID]
	out := make([]wellness.JournalEntry, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	r.mu.RUnlock()
	return out, nil
}

func (r *JournalRepository) Count(_ context.Context, ownerID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items[ownerID]), nil
}
