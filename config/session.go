package config

import "time"

const (
	defaultSessionTTL = 7 * 24 * time.Hour
	defaultIdleTTL    = 30 * time.Minute
	defaultLedgerTTL  = 30 * 24 * time.Hour
)

// SessionConfig controls browser session lifetimes.
type SessionConfig struct {
	// TTL is how long a session record and the session cookies live.
	TTL time.Duration `env:"TTL" envDefault:"168h"`

	// IdleTTL is how long an unused session store stays in memory before eviction.
	IdleTTL time.Duration `env:"IDLE_TTL" envDefault:"30m"`

	// SweepInterval is how often idle stores are evicted.
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`

	// LedgerTTL is how long a processed third-party identity is remembered.
	LedgerTTL time.Duration `env:"LEDGER_TTL" envDefault:"720h"`
}

// Sanitize restores defaults for non-positive durations.
func (s *SessionConfig) Sanitize() {
	if s.TTL <= 0 {
		s.TTL = defaultSessionTTL
	}
	if s.IdleTTL <= 0 {
		s.IdleTTL = defaultIdleTTL
	}
	if s.SweepInterval <= 0 {
		s.SweepInterval = time.Minute
	}
	if s.SweepInterval > s.IdleTTL {
		s.SweepInterval = s.IdleTTL
	}
	if s.LedgerTTL <= 0 {
		s.LedgerTTL = defaultLedgerTTL
	}
}
