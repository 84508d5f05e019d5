package authstate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunstone-mind/sunstone-web/internal/adapters/memory"
	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
	apperrors "github.com/sunstone-mind/sunstone-web/internal/errors"
)

func TestRegistry_OpenUnknownIssuesNewID(t *testing.T) {
	reg := NewRegistry(RegistryOptions{Repo: memory.NewSessionRepository(0)})

	s, err := reg.Open(context.Background(), "attacker-chosen")
	require.NoError(t, err)
	assert.NotEqual(t, "attacker-chosen", s.ID)
	assert.False(t, s.Authorized())

	again, err := reg.Open(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Same(t, s, again)
}

func TestRegistry_PersistsWritesAndReloads(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository(0)
	reg := NewRegistry(RegistryOptions{Repo: repo})

	s, err := reg.Open(ctx, "")
	require.NoError(t, err)
	require.NoError(t, s.Auth.SetAuthLogin(ada(), "abc"))
	prev := s.SetIdentity(&domainauth.Identity{ExternalID: "ext-1", Email: "ada@example.com"})
	assert.Nil(t, prev)

	rec, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, rec.State.IsAuthenticated)
	assert.Equal(t, "ext-1", rec.Identity.ExternalID)

	fresh := NewRegistry(RegistryOptions{Repo: repo})
	loaded, err := fresh.Open(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, loaded.ID)
	assert.Equal(t, "abc", loaded.Auth.Snapshot().Token)
	assert.Equal(t, "ext-1", loaded.Identity().ExternalID)
}

type failingRepo struct{ *memory.SessionRepository }

func (failingRepo) Get(context.Context, string) (domainauth.SessionRecord, error) {
	return domainauth.SessionRecord{}, errors.New("redis down")
}

func TestRegistry_OpenPropagatesRepoErrors(t *testing.T) {
	reg := NewRegistry(RegistryOptions{Repo: failingRepo{memory.NewSessionRepository(0)}})
	_, err := reg.Open(context.Background(), "some-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
}

func TestRegistry_SweepAndDestroy(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository(0)
	reg := NewRegistry(RegistryOptions{Repo: repo, IdleTTL: time.Minute})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	s, _ := reg.Open(ctx, "")
	s.Auth.SetAuth(&domainauth.User{ID: "1"}, "")
	assert.Equal(t, 1, reg.Len())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 0, reg.Len())

	reloaded, err := reg.Open(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, reloaded.ID, "evicted sessions reload from the repository")

	require.NoError(t, reg.Destroy(ctx, s.ID))
	_, err = repo.Get(ctx, s.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRegistry_OnEvictRunsForSweepAndDestroy(t *testing.T) {
	ctx := context.Background()
	var evicted []string
	reg := NewRegistry(RegistryOptions{
		Repo:    memory.NewSessionRepository(0),
		IdleTTL: time.Minute,
		OnEvict: func(id string) { evicted = append(evicted, id) },
	})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	idle, _ := reg.Open(ctx, "")
	now = now.Add(2 * time.Minute)
	fresh, _ := reg.Open(ctx, "")
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, []string{idle.ID}, evicted)

	require.NoError(t, reg.Destroy(ctx, fresh.ID))
	assert.Equal(t, []string{idle.ID, fresh.ID}, evicted)
}

func TestSessionContext(t *testing.T) {
	assert.Nil(t, SessionFromContext(context.Background()))
	s := &Session{ID: "x"}
	assert.Same(t, s, SessionFromContext(WithSession(context.Background(), s)))
}
