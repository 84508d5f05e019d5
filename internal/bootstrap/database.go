package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/sunstone-mind/sunstone-web/config"
	"github.com/sunstone-mind/sunstone-web/internal/migrate"
)

// Pool sizing for the wellness tables. Requests issue at most two queries
// concurrently (dashboard and profile fan out), so the pool stays small.
const (
	dbMaxOpenConns    = 10
	dbMaxIdleConns    = 2
	dbConnMaxLifetime = 30 * time.Minute
	dbConnMaxIdleTime = 5 * time.Minute
	connectTimeout    = 5 * time.Second
)

// ConnectDB opens the Postgres pool behind check-ins and journal entries
// and verifies it with a ping bounded by connectTimeout.
func ConnectDB(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)
	db.SetConnMaxIdleTime(dbConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close database: %w", closeErr))
		}
		return nil, fmt.Errorf("ping database %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, pingErr)
	}

	if logger != nil {
		logger.InfoContext(ctx, "wellness database connected",
			"host", cfg.Host,
			"port", cfg.Port,
			"database", cfg.Name,
			"max_open_conns", dbMaxOpenConns,
		)
	}
	return db, nil
}

// RunMigrations applies the embedded wellness schema and reports what ran.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := migrate.Run(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if logger == nil {
		return nil
	}
	status, err := migrate.Status(ctx, db)
	if err != nil {
		logger.WarnContext(ctx, "database migrations applied; status unavailable", "error", err)
		return nil
	}
	logger.InfoContext(ctx, "database migrations completed", "applied", len(status))
	return nil
}
