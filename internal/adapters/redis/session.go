// Package redis provides Redis-backed session and identity storage.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
	apperrors "github.com/sunstone-mind/sunstone-web/internal/errors"
)

const (
	DefaultSessionPrefix = "sunstone:session:"
	DefaultSessionTTL    = 7 * 24 * time.Hour
	scanBatch            = 200
)

// SessionRepository stores session records as JSON under prefix+id.
// Every Save refreshes the key's TTL.
type SessionRepository struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// SessionRepositoryOptions configures SessionRepository. Zero values select defaults.
type SessionRepositoryOptions struct {
	Prefix string
	TTL    time.Duration
}

// NewSessionRepository creates a Redis-backed session repository.
func NewSessionRepository(client redis.UniversalClient, opts SessionRepositoryOptions) *SessionRepository {
	if opts.Prefix == "" {
		opts.Prefix = DefaultSessionPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultSessionTTL
	}
	return &SessionRepository{client: client, prefix: opts.Prefix, ttl: opts.TTL}
}

func (r *SessionRepository) Save(ctx context.Context, rec domainauth.SessionRecord) error {
	if rec.ID == "" {
		return apperrors.Validation("session id cannot be empty")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+rec.ID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (domainauth.SessionRecord, error) {
	if id == "" {
		return domainauth.SessionRecord{}, apperrors.NotFound("session not found")
	}
	data, err := r.client.Get(ctx, r.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.SessionRecord{}, apperrors.NotFound("session not found")
		}
		return domainauth.SessionRecord{}, fmt.Errorf("redis get: %w", err)
	}
	var rec domainauth.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domainauth.SessionRecord{}, fmt.Errorf("unmarshal session: %w", err)
	}
	// Older writers may have left IsAuthenticated out of sync.
	rec.State = domainauth.NewState(rec.State.User, rec.State.Token)
	return rec, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return r.client.Del(ctx, r.prefix+id).Err()
}

// IDs scans the keyspace for stored session ids.
func (r *SessionRepository) IDs(ctx context.Context) ([]string, error) {
	var (
		ids    []string
		cursor uint64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan: %w", err)
		}
		for _, k := range keys {
			ids = append(ids, strings.TrimPrefix(k, r.prefix))
		}
		if next == 0 {
			return ids, nil
		}
		cursor = next
	}
}

// TTL reports the remaining lifetime of a stored session.
func (r *SessionRepository) TTL(ctx context.Context, id string) (time.Duration, error) {
	d, err := r.client.TTL(ctx, r.prefix+id).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl: %w", err)
	}
	if d < 0 {
		return 0, apperrors.NotFound("session not found")
	}
	return d, nil
}
