package ports

import (
	"context"
	"time"

	"github.com/sunstone-mind/sunstone-web/internal/domain/wellness"
)

// CheckInRepository stores mood check-ins. List methods return newest first.
type CheckInRepository interface {
	Create(ctx context.Context, c wellness.CheckIn) (wellness.CheckIn, error)
	ListRecent(ctx context.Context, ownerID string, limit int) ([]wellness.CheckIn, error)
	ListSince(ctx context.Context, ownerID string, since time.Time) ([]wellness.CheckIn, error)
	Count(ctx context.Context, ownerID string) (int, error)
}

// JournalRepository stores journal entries. ListRecent returns newest first.
type JournalRepository interface {
	Create(ctx context.Context, e wellness.JournalEntry) (wellness.JournalEntry, error)
	ListRecent(ctx context.Context, ownerID string, limit int) ([]wellness.JournalEntry, error)
	Count(ctx context.Context, ownerID string) (int, error)
}
