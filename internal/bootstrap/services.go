package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/sunstone-mind/sunstone-web/config"
	"github.com/sunstone-mind/sunstone-web/internal/adapters/backend"
	"github.com/sunstone-mind/sunstone-web/internal/adapters/memory"
	redisadapter "github.com/sunstone-mind/sunstone-web/internal/adapters/redis"
	"github.com/sunstone-mind/sunstone-web/internal/data"
	"github.com/sunstone-mind/sunstone-web/internal/observability/statsd"
	"github.com/sunstone-mind/sunstone-web/internal/ports"
	"github.com/sunstone-mind/sunstone-web/internal/service"
	"github.com/sunstone-mind/sunstone-web/internal/service/authstate"
)

// Redis key namespaces below RedisConfig.KeyPrefix.
const (
	sessionKeySpace  = "session:"
	identityKeySpace = "identity:"
)

// SessionKeyPrefix is the Redis prefix session records are stored under.
func SessionKeyPrefix(cfg config.RedisConfig) string { return cfg.KeyPrefix + sessionKeySpace }

// IdentityKeyPrefix is the Redis prefix of the identity ledger.
func IdentityKeyPrefix(cfg config.RedisConfig) string { return cfg.KeyPrefix + identityKeySpace }

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Sessions *authstate.Registry
	Flow     *service.AuthFlow
	Watcher  *service.IdentityWatcher
	Wellness *service.WellnessService
	// Identity is nil when third-party sign-in is disabled.
	Identity ports.IdentityProvider
	Metrics  *statsd.Client
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB               // required for persistent storage
	RedisClient redis.UniversalClient // required for persistent storage
	Identity    ports.IdentityProvider
	// BackendHTTPClient overrides the transport used for backend calls.
	BackendHTTPClient *http.Client
	Logger            *slog.Logger
}

// storageRepositories groups the adapters backing service ports.
type storageRepositories struct {
	Sessions ports.SessionRepository
	Ledger   ports.IdentityLedger
	CheckIns ports.CheckInRepository
	Journal  ports.JournalRepository
}

// buildRepositories selects storage adapters; no business rules here.
func buildRepositories(deps *ServiceDeps) (storageRepositories, error) {
	cfg := deps.Config
	if cfg.Storage != config.StoragePersistent {
		return storageRepositories{
			Sessions: memory.NewSessionRepository(cfg.Session.TTL),
			Ledger:   memory.NewIdentityLedger(),
			CheckIns: memory.NewCheckInRepository(),
			Journal:  memory.NewJournalRepository(),
		}, nil
	}
	if deps.DB == nil || deps.RedisClient == nil {
		return storageRepositories{}, errors.New("persistent storage requires both postgres and redis")
	}
	return storageRepositories{
		Sessions: redisadapter.NewSessionRepository(deps.RedisClient, redisadapter.SessionRepositoryOptions{
			Prefix: SessionKeyPrefix(cfg.Redis),
			TTL:    cfg.Session.TTL,
		}),
		Ledger:   redisadapter.NewIdentityLedger(deps.RedisClient, IdentityKeyPrefix(cfg.Redis)),
		CheckIns: data.NewCheckInRepo(deps.DB),
		Journal:  data.NewJournalRepo(deps.DB),
	}, nil
}

// buildMetrics returns a StatsD client. A disabled or unreachable endpoint
// yields a client that drops every metric.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	client, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.IsEnabled(),
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client, metrics disabled", "error", err)
		client, _ = statsd.NewClient(statsd.Config{Prefix: cfg.Prefix, Logger: logger})
	}
	return client
}

// clearSessionAuth drops the signed-in user of the session that issued a
// backend call answered with 401.
func clearSessionAuth(ctx context.Context) {
	if sess := authstate.SessionFromContext(ctx); sess != nil {
		sess.Auth.ClearAuth()
	}
}

// sessionToken forwards the request session's backend token, if any.
func sessionToken(ctx context.Context) string {
	if sess := authstate.SessionFromContext(ctx); sess != nil {
		return sess.Auth.Snapshot().Token
	}
	return ""
}

// NewServices wires repositories, the backend client and the services.
func NewServices(deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service deps with config are required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	repos, err := buildRepositories(deps)
	if err != nil {
		return nil, err
	}
	metricsClient := buildMetrics(logger, cfg.Observability.Metrics)

	client, err := backend.NewClient(backend.Config{
		BaseURL:        cfg.Backend.APIURL,
		HTTPClient:     deps.BackendHTTPClient,
		UserAgent:      cfg.Backend.UserAgent,
		Logger:         logger,
		Metrics:        metricsClient,
		OnUnauthorized: clearSessionAuth,
		TokenSource:    sessionToken,
	})
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}
	api := backend.NewAuthAPI(client, cfg.Backend.AuthPrefix, logger)

	flow := service.NewAuthFlow(service.AuthFlowOptions{API: api, Logger: logger, Metrics: metricsClient})
	sessions := authstate.NewRegistry(authstate.RegistryOptions{
		Repo:          repos.Sessions,
		Logger:        logger,
		IdleTTL:       cfg.Session.IdleTTL,
		SweepInterval: cfg.Session.SweepInterval,
		OnEvict:       flow.Forget,
	})

	logger.Info("services initialised",
		"storage", cfg.Storage,
		"backend", client.BaseURL(),
		"identity_enabled", deps.Identity != nil,
		"metrics_enabled", metricsClient.Enabled(),
	)

	return &ServiceContainer{
		Sessions: sessions,
		Flow:     flow,
		Watcher: service.NewIdentityWatcher(service.IdentityWatcherOptions{
			API:       api,
			Ledger:    repos.Ledger,
			LedgerTTL: cfg.Session.LedgerTTL,
			Logger:    logger,
			Metrics:   metricsClient,
		}),
		Wellness: service.NewWellnessService(service.WellnessServiceOptions{
			CheckIns: repos.CheckIns,
			Journal:  repos.Journal,
			Logger:   logger,
		}),
		Identity: deps.Identity,
		Metrics:  metricsClient,
	}, nil
}
