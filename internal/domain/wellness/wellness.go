// Package wellness models mood check-ins, journal entries and the stats derived from them.
package wellness

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/sunstone-mind/sunstone-web/internal/errors"
)

// MaxJournalRunes bounds a journal entry body.
const MaxJournalRunes = 5000

// Mood is a self-reported mood level.
type Mood string

const (
	MoodExcellent  Mood = "excellent"
	MoodGood       Mood = "good"
	MoodOkay       Mood = "okay"
	MoodDifficult  Mood = "difficult"
	MoodStruggling Mood = "struggling"
)

type moodInfo struct {
	label string
	emoji string
	score int
}

var moods = map[Mood]moodInfo{
	MoodExcellent:  {"Excellent", "😊", 5},
	MoodGood:       {"Good", "🙂", 4},
	MoodOkay:       {"Okay", "😐", 3},
	MoodDifficult:  {"Difficult", "😔", 2},
	MoodStruggling: {"Struggling", "😢", 1},
}

// Moods lists every mood from best to worst, in picker order.
func Moods() []Mood {
	return []Mood{MoodExcellent, MoodGood, MoodOkay, MoodDifficult, MoodStruggling}
}

// ParseMood accepts a mood value case-insensitively.
func ParseMood(v string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(v)))
	if _, ok := moods[m]; !ok {
		return "", apperrors.ValidationField("mood", "Please choose one of the listed moods.")
	}
	return m, nil
}

func (m Mood) Label() string { return moods[m].label }
func (m Mood) Emoji() string { return moods[m].emoji }

// Score maps the mood onto 1 (struggling) .. 5 (excellent); unknown moods score 0.
func (m Mood) Score() int { return moods[m].score }

// Tag labels a journal entry.
type Tag string

const (
	TagGrateful   Tag = "grateful"
	TagPeaceful   Tag = "peaceful"
	TagReflective Tag = "reflective"
	TagAnxious    Tag = "anxious"
	TagSad        Tag = "sad"
	TagHappy      Tag = "happy"
)

// Tags lists every tag in display order.
func Tags() []Tag {
	return []Tag{TagGrateful, TagPeaceful, TagReflective, TagAnxious, TagSad, TagHappy}
}

// ParseTag accepts a tag value case-insensitively.
func ParseTag(v string) (Tag, error) {
	t := Tag(strings.ToLower(strings.TrimSpace(v)))
	for _, known := range Tags() {
		if t == known {
			return t, nil
		}
	}
	return "", apperrors.ValidationField("tags", "Please choose one of the listed tags.")
}

// Label is the capitalized tag name.
func (t Tag) Label() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// CheckIn is one mood report.
type CheckIn struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Mood      Mood      `json:"mood"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// JournalEntry is one free-text reflection.
type JournalEntry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Body      string    `json:"body"`
	Tags      []Tag     `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewJournalEntry validates the body and tags of a submitted entry.
// Duplicate tags are collapsed, keeping first-seen order.
func NewJournalEntry(ownerID, body string, rawTags []string) (JournalEntry, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return JournalEntry{}, apperrors.ValidationField("body", "Please write something before saving.")
	}
	if utf8.RuneCountInString(body) > MaxJournalRunes {
		return JournalEntry{}, apperrors.ValidationField("body", "Journal entries are limited to 5000 characters.")
	}
	seen := make(map[Tag]bool, len(rawTags))
	tags := make([]Tag, 0, len(rawTags))
	for _, raw := range rawTags {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		tag, err := ParseTag(raw)
		if err != nil {
			return JournalEntry{}, err
		}
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return JournalEntry{OwnerID: ownerID, Body: body, Tags: tags}, nil
}

// Stats summarizes a user's activity for the profile page.
type Stats struct {
	CheckIns    int
	Entries     int
	StreakDays  int
	AverageMood float64
}

// AverageMoodLabel maps the average score back onto the nearest mood label.
func (s Stats) AverageMoodLabel() string {
	if s.AverageMood <= 0 {
		return "No check-ins yet"
	}
	best := MoodOkay
	bestDiff := 10.0
	for _, m := range Moods() {
		d := s.AverageMood - float64(m.Score())
		if d < 0 {
			d = -d
		}
		if d < bestDiff {
			best, bestDiff = m, d
		}
	}
	return best.Label()
}

// ComputeStats derives stats from check-ins (any order) and an entry count.
// The streak counts consecutive calendar days in loc ending today or
// yesterday on which at least one check-in was recorded.
func ComputeStats(checkIns []CheckIn, entries int, now time.Time, loc *time.Location) Stats {
	if loc == nil {
		loc = time.UTC
	}
	st := Stats{CheckIns: len(checkIns), Entries: entries}
	if len(checkIns) == 0 {
		return st
	}

	days := make(map[string]bool, len(checkIns))
	total := 0
	for _, c := range checkIns {
		total += c.Mood.Score()
		days[c.CreatedAt.In(loc).Format(time.DateOnly)] = true
	}
	st.AverageMood = float64(total) / float64(len(checkIns))

	day := now.In(loc)
	if !days[day.Format(time.DateOnly)] {
		day = day.AddDate(0, 0, -1)
	}
	for days[day.Format(time.DateOnly)] {
		st.StreakDays++
		day = day.AddDate(0, 0, -1)
	}
	return st
}

// SortNewestFirst orders check-ins by descending CreatedAt.
func SortNewestFirst(checkIns []CheckIn) {
	sort.SliceStable(checkIns, func(i, j int) bool {
		return checkIns[i].CreatedAt.After(checkIns[j].CreatedAt)
	})
}

// Greeting returns the time-of-day salutation shown on the dashboard.
func Greeting(now time.Time) string {
	switch h := now.Hour(); {
	case h < 12:
		return "Good morning"
	case h < 17:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}
