package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sunstone-mind/sunstone-web/internal/domain/feedback"
	"github.com/sunstone-mind/sunstone-web/internal/domain/wellness"
	apperrors "github.com/sunstone-mind/sunstone-web/internal/errors"
	"github.com/sunstone-mind/sunstone-web/internal/ports"
)

const (
	MsgCheckInSaved = "Mood check-in saved"
	MsgEntrySaved   = "Journal entry saved"

	recentCheckIns = 5
	recentEntries  = 3
	// statsWindow bounds the check-ins scanned for streak and average.
	statsWindow = 90 * 24 * time.Hour
)

// WellnessServiceOptions groups dependencies for WellnessService.
type WellnessServiceOptions struct {
	CheckIns ports.CheckInRepository
	Journal  ports.JournalRepository
	Logger   *slog.Logger
	// Location is the calendar used for streaks and greetings. Defaults to UTC.
	Location *time.Location
	Now      func() time.Time
}

// WellnessService backs the dashboard, journal and profile pages.
type WellnessService struct {
	checkIns ports.CheckInRepository
	journal  ports.JournalRepository
	logger   *slog.Logger
	loc      *time.Location
	now      func() time.Time
}

// NewWellnessService constructs a WellnessService.
func NewWellnessService(opts WellnessServiceOptions) *WellnessService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &WellnessService{
		checkIns: opts.CheckIns,
		journal:  opts.Journal,
		logger:   logger.With("component", "wellness"),
		loc:      loc,
		now:      now,
	}
}

// Dashboard is the data rendered on /dashboard.
type Dashboard struct {
	Greeting       string
	Name           string
	Moods          []wellness.Mood
	RecentCheckIns []wellness.CheckIn
	RecentEntries  []wellness.JournalEntry
	Stats          wellness.Stats
}

// Profile is the data rendered on /profile.
type Profile struct {
	Name  string
	Email string
	Stats wellness.Stats
}

// Dashboard loads recent activity and stats for owner concurrently.
func (s *WellnessService) Dashboard(ctx context.Context, ownerID, name string) (Dashboard, error) {
	now := s.now()
	d := Dashboard{
		Greeting: wellness.Greeting(now.In(s.loc)),
		Name:     name,
		Moods:    wellness.Moods(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := s.checkIns.ListRecent(gctx, ownerID, recentCheckIns)
		if err != nil {
			return fmt.Errorf("recent check-ins: %w", err)
		}
		d.RecentCheckIns = list
		return nil
	})
	g.Go(func() error {
		list, err := s.journal.ListRecent(gctx, ownerID, recentEntries)
		if err != nil {
			return fmt.Errorf("recent entries: %w", err)
		}
		d.RecentEntries = list
		return nil
	})
	g.Go(func() error {
		st, err := s.stats(gctx, ownerID, now)
		if err != nil {
			return err
		}
		d.Stats = st
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "load dashboard", "owner_id", ownerID, "error", err)
		return Dashboard{}, apperrors.MapDBError(err)
	}
	return d, nil
}

// Profile loads the profile summary for owner.
func (s *WellnessService) Profile(ctx context.Context, ownerID, name, email string) (Profile, error) {
	st, err := s.stats(ctx, ownerID, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "load profile", "owner_id", ownerID, "error", err)
		return Profile{}, apperrors.MapDBError(err)
	}
	return Profile{Name: name, Email: email, Stats: st}, nil
}

func (s *WellnessService) stats(ctx context.Context, ownerID string, now time.Time) (wellness.Stats, error) {
	g, gctx := errgroup.WithContext(ctx)
	var window []wellness.CheckIn
	var checkIns, entries int
	g.Go(func() (err error) {
		window, err = s.checkIns.ListSince(gctx, ownerID, now.Add(-statsWindow))
		return err
	})
	g.Go(func() (err error) {
		checkIns, err = s.checkIns.Count(gctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		entries, err = s.journal.Count(gctx, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return wellness.Stats{}, fmt.Errorf("stats: %w", err)
	}
	st := wellness.ComputeStats(window, entries, now, s.loc)
	st.CheckIns = checkIns
	return st, nil
}

// RecordCheckIn stores a mood check-in for owner.
func (s *WellnessService) RecordCheckIn(ctx context.Context, ownerID, rawMood, note string) (wellness.CheckIn, error) {
	mood, err := wellness.ParseMood(rawMood)
	if err != nil {
		return wellness.CheckIn{}, err
	}
	c, err := s.checkIns.Create(ctx, wellness.CheckIn{
		OwnerID:   ownerID,
		Mood:      mood,
		Note:      strings.TrimSpace(note),
		CreatedAt: s.now(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "record check-in", "owner_id", ownerID, "error", err)
		return wellness.CheckIn{}, apperrors.MapDBError(err)
	}
	feedback.FromContext(ctx).Success(MsgCheckInSaved)
	return c, nil
}

// AddJournalEntry validates and stores a journal entry for owner.
func (s *WellnessService) AddJournalEntry(ctx context.Context, ownerID, body string, tags []string) (wellness.JournalEntry, error) {
	e, err := wellness.NewJournalEntry(ownerID, body, tags)
	if err != nil {
		return wellness.JournalEntry{}, err
	}
	e.CreatedAt = s.now()
	saved, err := s.journal.Create(ctx, e)
	if err != nil {
		s.logger.ErrorContext(ctx, "add journal entry", "owner_id", ownerID, "error", err)
		return wellness.JournalEntry{}, apperrors.MapDBError(err)
	}
	feedback.FromContext(ctx).Success(MsgEntrySaved)
	return saved, nil
}

// Journal lists the owner's newest entries.
func (s *WellnessService) Journal(ctx context.Context, ownerID string, limit int) ([]wellness.JournalEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	list, err := s.journal.ListRecent(ctx, ownerID, limit)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return list, nil
}
