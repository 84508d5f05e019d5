package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/sunstone-mind/sunstone-web/config"
)

// Redis topologies selectable through RedisConfig.
const (
	redisDirect   = "direct"
	redisSentinel = "sentinel"
	redisCluster  = "cluster"
)

// redisTarget is the resolved connection plan for one topology.
type redisTarget struct {
	mode string
	opts *redis.UniversalOptions
}

// describe names the target without credentials.
func (t redisTarget) describe() string {
	switch t.mode {
	case redisSentinel:
		return "sentinel:" + t.opts.MasterName
	default:
		return t.mode + ":" + strings.Join(t.opts.Addrs, ",")
	}
}

// resolveRedisTarget turns RedisConfig into client options. A redis:// or
// rediss:// URI contributes address, credentials, TLS and DB; an explicit
// REDIS_DB wins over a URI without a database path.
func resolveRedisTarget(cfg config.RedisConfig) (redisTarget, error) {
	opts := &redis.UniversalOptions{Password: cfg.Password, DB: cfg.DB}

	uri := strings.TrimSpace(cfg.URI)
	if strings.HasPrefix(uri, "redis://") || strings.HasPrefix(uri, "rediss://") {
		parsed, err := redis.ParseURL(uri)
		if err != nil {
			return redisTarget{}, fmt.Errorf("parse redis url: %w", err)
		}
		opts.Addrs = []string{parsed.Addr}
		opts.Username = parsed.Username
		opts.TLSConfig = parsed.TLSConfig
		if parsed.Password != "" {
			opts.Password = parsed.Password
		}
		if parsed.DB != 0 {
			opts.DB = parsed.DB
		}
	} else if uri != "" {
		opts.Addrs = []string{uri}
	}

	switch {
	case cfg.UseCluster:
		if nodes := trimAll(cfg.ClusterNodes); len(nodes) > 0 {
			opts.Addrs = nodes
		}
		if len(opts.Addrs) == 0 {
			return redisTarget{}, errors.New("redis cluster requires REDIS_CLUSTER_NODES or REDIS_URI")
		}
		return redisTarget{mode: redisCluster, opts: opts}, nil
	case cfg.UseSentinel:
		opts.Addrs = trimAll(cfg.SentinelNodes)
		if len(opts.Addrs) == 0 {
			return redisTarget{}, errors.New("redis sentinel requires at least one REDIS_SENTINEL_NODES entry")
		}
		opts.MasterName = cfg.SentinelMasterName
		opts.SentinelPassword = cfg.SentinelPassword
		return redisTarget{mode: redisSentinel, opts: opts}, nil
	default:
		if len(opts.Addrs) == 0 {
			return redisTarget{}, errors.New("redis requires REDIS_URI")
		}
		return redisTarget{mode: redisDirect, opts: opts}, nil
	}
}

//nolint:ireturn // the topology decides the concrete client.
func (t redisTarget) client() redis.UniversalClient {
	switch t.mode {
	case redisCluster:
		return redis.NewClusterClient(t.opts.Cluster())
	case redisSentinel:
		return redis.NewFailoverClient(t.opts.Failover())
	default:
		return redis.NewClient(t.opts.Simple())
	}
}

// ConnectRedis connects the store behind browser sessions and the identity
// ledger, pings it, and logs the key layout both use.
//
//nolint:ireturn // returning redis.UniversalClient lets us pick single, sentinel, or cluster clients at runtime.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	target, err := resolveRedisTarget(cfg)
	if err != nil {
		return nil, err
	}
	client := target.client()

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis %s: %w", target.describe(), pingErr)
	}

	if logger != nil {
		logger.InfoContext(ctx, "redis connected",
			"target", target.describe(),
			"session_keys", SessionKeyPrefix(cfg)+"*",
			"identity_keys", IdentityKeyPrefix(cfg)+"*",
		)
	}
	return client, nil
}

func trimAll(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
