package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/sunstone-mind/sunstone-web/config"
	"github.com/sunstone-mind/sunstone-web/internal/bootstrap"
)

type connectInfraOptions struct {
	Ctx       context.Context
	Logger    *slog.Logger
	Config    *config.AppConfig
	WantDB    bool
	WantRedis bool
}

var errRedisNotConfigured = errors.New("redis not configured")

// connectInfraWithOptions creates only the dependencies a command asks for.
// A missing Redis configuration yields a nil client rather than an error.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func connectInfraWithOptions(opts *connectInfraOptions) (*sql.DB, redis.UniversalClient, error) {
	var db *sql.DB
	if opts.WantDB {
		var err error
		db, err = bootstrap.ConnectDB(opts.Ctx, opts.Config.Postgres, opts.Logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect db: %w", err)
		}
	}
	if !opts.WantRedis {
		return db, nil, nil
	}

	client, err := maybeConnectRedis(opts.Ctx, opts.Logger, &opts.Config.Redis)
	switch {
	case err == nil:
		return db, client, nil
	case errors.Is(err, errRedisNotConfigured):
		opts.Logger.Info("no redis configuration detected; skipping redis connection")
		return db, nil, nil
	}

	if db != nil {
		if closeErr := db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close db: %w", closeErr))
		}
	}
	return nil, nil, err
}

// maybeConnectRedis returns a connected client when configuration is present.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func maybeConnectRedis(ctx context.Context, logger *slog.Logger, cfg *config.RedisConfig) (redis.UniversalClient, error) {
	if !hasRedisConfig(cfg) {
		return nil, errRedisNotConfigured
	}
	client, err := bootstrap.ConnectRedis(ctx, *cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

func hasRedisConfig(cfg *config.RedisConfig) bool {
	if cfg == nil {
		return false
	}
	if cfg.UseCluster {
		return len(cfg.ClusterNodes) > 0 || cfg.URI != ""
	}
	if cfg.UseSentinel {
		return len(cfg.SentinelNodes) > 0
	}
	return cfg.URI != ""
}
