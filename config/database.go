package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// StorageBackend selects the persistence used for sessions and wellness data.
type StorageBackend string

const (
	// StorageMemory keeps everything in process memory (dev and tests).
	StorageMemory StorageBackend = "memory"
	// StoragePersistent keeps sessions in Redis and wellness data in Postgres.
	StoragePersistent StorageBackend = "persistent"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageBackend.
func (s *StorageBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory":
		*s = StorageMemory
	case "persistent", "redis+postgres":
		*s = StoragePersistent
	default:
		return fmt.Errorf("invalid StorageBackend: %q (valid options: memory, persistent)", v)
	}
	return nil
}

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"sunstone"`
	Password string `env:"PASSWORD"                envDefault:"sunstone"`
	Name     string `env:"NAME"                    envDefault:"sunstone"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// DSN renders the pgx connection string. Credentials are escaped.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
	// KeyPrefix namespaces session and ledger keys.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"sunstone:"`
}
