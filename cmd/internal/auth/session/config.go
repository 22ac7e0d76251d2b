package session

import (
	"os"
	"strconv"
	"time"
)

// Config defines all runtime configuration for the auth core.
//
// It controls access-token TTL, refresh-token lifetime and entropy, clock
// skew tolerance, ledger retention, and the PASETO v4 signing key. The struct
// is env-driven so security parameters can be tuned without code changes.
type Config struct {
	// Issuer is the value set in the "iss" claim of access tokens.
	Issuer string

	// AccessTokenTTL defines the lifetime of access tokens. This is also the
	// upper bound on how long a revoked-but-unexpired access token stays
	// usable, so keep it short.
	AccessTokenTTL time.Duration

	// RefreshTokenTTL defines the lifetime of refresh tokens, fixed at
	// issuance.
	RefreshTokenTTL time.Duration

	// ClockSkew defines the allowed time skew during token validation.
	ClockSkew time.Duration

	// RefreshTokenBytes defines the number of random bytes behind each
	// opaque refresh token.
	RefreshTokenBytes int

	// LedgerRetention is how long expired ledger rows are kept before the
	// sweeper deletes them.
	LedgerRetention time.Duration

	// SweepInterval is how often the maintenance sweeper runs.
	SweepInterval time.Duration

	// PasetoV4SecretKeyHex is the hex-encoded Ed25519 secret key used to
	// sign PASETO v4.public access tokens.
	PasetoV4SecretKeyHex string
}

// DefaultConfig returns a secure default configuration suitable for
// development. Production overrides values via environment variables.
func DefaultConfig() Config {
	return Config{
		Issuer:            "atrium",
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   7 * 24 * time.Hour,
		ClockSkew:         30 * time.Second,
		RefreshTokenBytes: 32,
		LedgerRetention:   30 * 24 * time.Hour,
		SweepInterval:     1 * time.Hour,
	}
}

// LoadConfigFromEnv loads auth-core configuration from environment variables.
//
// Required:
//   - ATRIUM_PASETO_V4_SECRET_KEY_HEX
//
// Optional (durations must be valid Go duration strings):
//   - ATRIUM_AUTH_ISSUER
//   - ATRIUM_AUTH_ACCESS_TTL
//   - ATRIUM_AUTH_REFRESH_TTL
//   - ATRIUM_AUTH_CLOCK_SKEW
//   - ATRIUM_AUTH_REFRESH_TOKEN_BYTES
//   - ATRIUM_AUTH_LEDGER_RETENTION
//   - ATRIUM_AUTH_SWEEP_INTERVAL
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("ATRIUM_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("ATRIUM_AUTH_ACCESS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTokenTTL = d
	}

	if v := os.Getenv("ATRIUM_AUTH_REFRESH_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTokenTTL = d
	}

	if v := os.Getenv("ATRIUM_AUTH_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	if v := os.Getenv("ATRIUM_AUTH_REFRESH_TOKEN_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 32 || n > 64 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTokenBytes = n
	}

	if v := os.Getenv("ATRIUM_AUTH_LEDGER_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.LedgerRetention = d
	}

	if v := os.Getenv("ATRIUM_AUTH_SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.SweepInterval = d
	}

	cfg.PasetoV4SecretKeyHex = os.Getenv("ATRIUM_PASETO_V4_SECRET_KEY_HEX")
	if cfg.PasetoV4SecretKeyHex == "" {
		return Config{}, ErrConfig
	}

	// Access tokens must be much shorter-lived than refresh tokens for the
	// rotation model to mean anything.
	if cfg.AccessTokenTTL >= cfg.RefreshTokenTTL {
		return Config{}, ErrConfig
	}

	return cfg, nil
}
