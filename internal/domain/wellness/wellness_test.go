package wellness

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sunstone-mind/sunstone-web/internal/errors"
)

func TestParseMood(t *testing.T) {
	m, err := ParseMood(" Good ")
	require.NoError(t, err)
	assert.Equal(t, MoodGood, m)
	assert.Equal(t, 4, m.Score())
	assert.Equal(t, "Good", m.Label())

	_, err = ParseMood("ecstatic")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "mood", apperrors.GetField(err))
}

func TestNewJournalEntry(t *testing.T) {
	e, err := NewJournalEntry("u1", "  slept well  ", []string{"Grateful", "peaceful", "grateful", ""})
	require.NoError(t, err)
	assert.Equal(t, "slept well", e.Body)
	assert.Equal(t, []Tag{TagGrateful, TagPeaceful}, e.Tags)

	_, err = NewJournalEntry("u1", "   ", nil)
	assert.True(t, apperrors.IsValidation(err))

	_, err = NewJournalEntry("u1", strings.Repeat("é", MaxJournalRunes+1), nil)
	assert.Equal(t, "body", apperrors.GetField(err))

	_, err = NewJournalEntry("u1", "ok", []string{"furious"})
	assert.Equal(t, "tags", apperrors.GetField(err))
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	at := func(daysAgo int, m Mood) CheckIn {
		return CheckIn{Mood: m, CreatedAt: now.AddDate(0, 0, -daysAgo)}
	}

	t.Run("empty", func(t *testing.T) {
		st := ComputeStats(nil, 2, now, time.UTC)
		assert.Equal(t, Stats{Entries: 2}, st)
		assert.Equal(t, "No check-ins yet", st.AverageMoodLabel())
	})

	t.Run("streak through today", func(t *testing.T) {
		st := ComputeStats([]CheckIn{at(0, MoodExcellent), at(1, MoodGood), at(1, MoodOkay), at(2, MoodGood), at(5, MoodStruggling)}, 0, now, time.UTC)
		assert.Equal(t, 5, st.CheckIns)
		assert.Equal(t, 3, st.StreakDays)
		assert.InDelta(t, 3.4, st.AverageMood, 0.0001)
		assert.Equal(t, "Okay", st.AverageMoodLabel())
	})

	t.Run("streak ending yesterday still counts", func(t *testing.T) {
		st := ComputeStats([]CheckIn{at(1, MoodGood), at(2, MoodGood)}, 0, now, nil)
		assert.Equal(t, 2, st.StreakDays)
	})

	t.Run("gap breaks streak", func(t *testing.T) {
		st := ComputeStats([]CheckIn{at(2, MoodGood)}, 0, now, time.UTC)
		assert.Zero(t, st.StreakDays)
	})
}

func TestGreeting(t *testing.T) {
	day := func(h int) time.Time { return time.Date(2026, 1, 1, h, 30, 0, 0, time.UTC) }
	assert.Equal(t, "Good morning", Greeting(day(6)))
	assert.Equal(t, "Good afternoon", Greeting(day(12)))
	assert.Equal(t, "Good afternoon", Greeting(day(16)))
	assert.Equal(t, "Good evening", Greeting(day(17)))
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cs := []CheckIn{{ID: "a", CreatedAt: base}, {ID: "b", CreatedAt: base.Add(time.Hour)}}
	SortNewestFirst(cs)
	assert.Equal(t, "b", cs[0].ID)
}
