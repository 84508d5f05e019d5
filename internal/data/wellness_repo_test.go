package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunstone-mind/sunstone-web/internal/domain/wellness"
	apperrors "github.com/sunstone-mind/sunstone-web/internal/errors"
	"github.com/sunstone-mind/sunstone-web/internal/testutil"
)

func TestCheckInRepo_CreateListCount(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		clock := NewFixedTimeProvider(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
		repo := NewCheckInRepoWithTimeProvider(db, clock)

		first, err := repo.Create(ctx, wellness.CheckIn{OwnerID: "17", Mood: wellness.MoodGood, Note: "ok"})
		require.NoError(t, err)
		assert.NotEmpty(t, first.ID)
		assert.True(t, first.CreatedAt.Equal(clock.Now()))

		clock.AddTime(24 * time.Hour)
		_, err = repo.Create(ctx, wellness.CheckIn{OwnerID: "17", Mood: wellness.MoodExcellent})
		require.NoError(t, err)
		_, err = repo.Create(ctx, wellness.CheckIn{OwnerID: "other", Mood: wellness.MoodOkay})
		require.NoError(t, err)

		recent, err := repo.ListRecent(ctx, "17", 10)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, wellness.MoodExcellent, recent[0].Mood)

		since, err := repo.ListSince(ctx, "17", clock.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Len(t, since, 1)

		n, err := repo.Count(ctx, "17")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestCheckInRepo_RejectsUnknownMood(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		_, err := NewCheckInRepo(db).Create(context.Background(), wellness.CheckIn{OwnerID: "17", Mood: "ecstatic"})
		require.Error(t, err)
		mapped := apperrors.MapDBError(err)
		assert.True(t, apperrors.IsValidation(mapped))
		assert.Equal(t, "Please choose one of the listed moods.", apperrors.UserMessage(mapped, ""))
	})
}

func TestJournalRepo_CreateAndList(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewJournalRepo(db)

		e, err := repo.Create(ctx, wellness.JournalEntry{
			OwnerID: "17",
			Body:    "A quiet morning.",
			Tags:    []wellness.Tag{wellness.TagPeaceful, wellness.TagGrateful},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, []wellness.Tag{wellness.TagPeaceful, wellness.TagGrateful}, e.Tags)

		list, err := repo.ListRecent(ctx, "17", 5)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "A quiet morning.", list[0].Body)

		n, err := repo.Count(ctx, "17")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		_, err = repo.Create(ctx, wellness.JournalEntry{OwnerID: "17", Body: "x", Tags: []wellness.Tag{"bogus"}})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(apperrors.MapDBError(err)))
	})
}
