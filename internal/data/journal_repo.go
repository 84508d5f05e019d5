package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sunstone-mind/sunstone-web/internal/data/pgxutil"
	"github.com/sunstone-mind/sunstone-web/internal/domain/wellness"
)

// JournalRepo stores journal entries in Postgres.
type JournalRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewJournalRepo creates a JournalRepo with the real clock.
func NewJournalRepo(db *sql.DB) *JournalRepo {
	return &JournalRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// Create inserts e and returns the stored row with its generated id.
func (r *JournalRepo) Create(ctx context.Context, e wellness.JournalEntry) (wellness.JournalEntry, error) {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.timeProvider.Now()
	}
	tags := make([]string, len(e.Tags))
	for i, t := range e.Tags {
		tags[i] = string(t)
	}

	var out wellness.JournalEntry
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO journal_entries (owner_id, body, tags, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id::text, owner_id, body, tags, created_at`,
			e.OwnerID, e.Body, tags, createdAt.UTC(),
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectExactlyOneRow(rows, scanJournalEntry)
		return err
	})
	if err != nil {
		return wellness.JournalEntry{}, fmt.Errorf("insert journal entry: %w", err)
	}
	return out, nil
}

// ListRecent returns up to limit entries for owner, newest first.
func (r *JournalRepo) ListRecent(ctx context.Context, ownerID string, limit int) ([]wellness.JournalEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []wellness.JournalEntry
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id::text, owner_id, body, tags, created_at
			FROM journal_entries
			WHERE owner_id = $1
			ORDER BY created_at DESC
			LIMIT $2`, ownerID, limit)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, scanJournalEntry)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("query journal entries: %w", err)
	}
	return out, nil
}

// Count returns the number of entries owner has written.
func (r *JournalRepo) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM journal_entries WHERE owner_id = $1`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count journal entries: %w", err)
	}
	return n, nil
}

func scanJournalEntry(row pgx.CollectableRow) (wellness.JournalEntry, error) {
	var (
		e    wellness.JournalEntry
		tags []string
	)
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Body, &tags, &e.CreatedAt); err != nil {
		return wellness.JournalEntry{}, err
	}
	for _, t := range tags {
		e.Tags = append(e.Tags, wellness.Tag(t))
	}
	return e, nil
}
