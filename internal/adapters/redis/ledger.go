package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultLedgerPrefix = "sunstone:identity:processed:"

// IdentityLedger records reconciled external identities with SETNX so that
// concurrent replicas agree on which one registered first.
type IdentityLedger struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewIdentityLedger creates a ledger. An empty prefix selects DefaultLedgerPrefix.
func NewIdentityLedger(client redis.UniversalClient, prefix string) *IdentityLedger {
	if prefix == "" {
		prefix = DefaultLedgerPrefix
	}
	return &IdentityLedger{client: client, prefix: prefix, now: time.Now}
}

func (l *IdentityLedger) Processed(ctx context.Context, externalID string) (bool, error) {
	n, err := l.client.Exists(ctx, l.prefix+externalID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed reports true when this call created the entry.
func (l *IdentityLedger) MarkProcessed(ctx context.Context, externalID string, ttl time.Duration) (bool, error) {
	stamp := l.now().UTC().Format(time.RFC3339)
	ok, err := l.client.SetNX(ctx, l.prefix+externalID, stamp, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (l *IdentityLedger) Forget(ctx context.Context, externalID string) error {
	if err := l.client.Del(ctx, l.prefix+externalID).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
