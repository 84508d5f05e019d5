package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
	apperrors "github.com/sunstone-mind/sunstone-web/internal/errors"
	"github.com/sunstone-mind/sunstone-web/internal/testutil"
)

func TestSessionRepository_SaveGetDelete(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	repo := NewSessionRepository(client, SessionRepositoryOptions{Prefix: "test:session:", TTL: time.Minute})
	ctx := context.Background()

	rec := domainauth.SessionRecord{
		ID:        "sess-1",
		State:     domainauth.NewState(&domainauth.User{ID: "42", Email: "ada@example.com"}, "tok"),
		Identity:  &domainauth.Identity{ExternalID: "user_2x", Email: "ada@example.com"},
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.Save(ctx, rec))

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, rec.State, got.State)
	assert.Equal(t, rec.Identity, got.Identity)
	assert.True(t, rec.UpdatedAt.Equal(got.UpdatedAt))

	ttl, err := repo.TTL(ctx, "sess-1")
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Minute)

	ids, err := repo.IDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "sess-1")

	require.NoError(t, repo.Delete(ctx, "sess-1"))
	_, err = repo.Get(ctx, "sess-1")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSessionRepository_RejectsEmptyID(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	repo := NewSessionRepository(client, SessionRepositoryOptions{})

	err := repo.Save(context.Background(), domainauth.SessionRecord{})
	assert.True(t, apperrors.IsValidation(err))

	_, err = repo.Get(context.Background(), "")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestIdentityLedger_FirstMarkWins(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ledger := NewIdentityLedger(client, "test:identity:")
	ctx := context.Background()

	processed, err := ledger.Processed(ctx, "user_2x")
	require.NoError(t, err)
	assert.False(t, processed)

	first, err := ledger.MarkProcessed(ctx, "user_2x", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := ledger.MarkProcessed(ctx, "user_2x", time.Minute)
	require.NoError(t, err)
	assert.False(t, again)

	processed, err = ledger.Processed(ctx, "user_2x")
	require.NoError(t, err)
	assert.True(t, processed)

	require.NoError(t, ledger.Forget(ctx, "user_2x"))
	processed, err = ledger.Processed(ctx, "user_2x")
	require.NoError(t, err)
	assert.False(t, processed)
}
