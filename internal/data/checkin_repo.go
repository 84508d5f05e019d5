package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sunstone-mind/sunstone-web/internal/data/pgxutil"
	"github.com/sunstone-mind/sunstone-web/internal/domain/wellness"
)

const checkInColumns = `id::text, owner_id, mood, note, created_at`

// CheckInRepo stores mood check-ins in Postgres.
type CheckInRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewCheckInRepo creates a CheckInRepo with the real clock.
func NewCheckInRepo(db *sql.DB) *CheckInRepo {
	return &CheckInRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewCheckInRepoWithTimeProvider creates a CheckInRepo with a custom clock (useful for tests).
func NewCheckInRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *CheckInRepo {
	return &CheckInRepo{DB: db, timeProvider: tp}
}

// Create inserts c. A zero CreatedAt is set from the repository clock.
func (r *CheckInRepo) Create(ctx context.Context, c wellness.CheckIn) (wellness.CheckIn, error) {
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.timeProvider.Now()
	}
	var out wellness.CheckIn
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO check_ins (owner_id, mood, note, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING `+checkInColumns,
			c.OwnerID, string(c.Mood), c.Note, createdAt.UTC(),
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectExactlyOneRow(rows, scanCheckIn)
		return err
	})
	if err != nil {
		return wellness.CheckIn{}, fmt.Errorf("insert check-in: %w", err)
	}
	return out, nil
}

// ListRecent returns up to limit check-ins for owner, newest first.
func (r *CheckInRepo) ListRecent(ctx context.Context, ownerID string, limit int) ([]wellness.CheckIn, error) {
	if limit <= 0 {
		limit = 20
	}
	return r.query(ctx, `
		SELECT `+checkInColumns+`
		FROM check_ins
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, ownerID, limit)
}

// ListSince returns owner's check-ins at or after since, newest first.
func (r *CheckInRepo) ListSince(ctx context.Context, ownerID string, since time.Time) ([]wellness.CheckIn, error) {
	return r.query(ctx, `
		SELECT `+checkInColumns+`
		FROM check_ins
		WHERE owner_id = $1 AND created_at >= $2
		ORDER BY created_at DESC`, ownerID, since.UTC())
}

// Count returns the number of check-ins owner has recorded.
func (r *CheckInRepo) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM check_ins WHERE owner_id = $1`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count check-ins: %w", err)
	}
	return n, nil
}

func (r *CheckInRepo) query(ctx context.Context, sqlText string, args ...any) ([]wellness.CheckIn, error) {
	var out []wellness.CheckIn
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, sqlText, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, scanCheckIn)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("query check-ins: %w", err)
	}
	return out, nil
}

func scanCheckIn(row pgx.CollectableRow) (wellness.CheckIn, error) {
	var (
		c    wellness.CheckIn
		mood string
	)
	if err := row.Scan(&c.ID, &c.OwnerID, &mood, &c.Note, &c.CreatedAt); err != nil {
		return wellness.CheckIn{}, err
	}
	c.Mood = wellness.Mood(mood)
	return c, nil
}
