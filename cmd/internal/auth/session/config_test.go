package session

import (
	"testing"
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

func TestLoadConfigFromEnv_MissingSecretKey(t *testing.T) {
	t.Setenv("ATRIUM_PASETO_V4_SECRET_KEY_HEX", "")
	_, err := LoadConfigFromEnv()
	if err != ErrConfig {
		t.Fatalf("expected ErrConfig on missing secret, got %v", err)
	}
}

func TestLoadConfigFromEnv_InvalidDurations(t *testing.T) {
	secret := paseto.NewV4AsymmetricSecretKey()
	t.Setenv("ATRIUM_PASETO_V4_SECRET_KEY_HEX", secret.ExportHex())
	t.Setenv("ATRIUM_AUTH_ACCESS_TTL", "-5m")
	_, err := LoadConfigFromEnv()
	if err != ErrConfig {
		t.Fatalf("expected ErrConfig for negative duration, got %v", err)
	}
}

func TestLoadConfigFromEnv_InvalidRefreshTokenBytes(t *testing.T) {
	secret := paseto.NewV4AsymmetricSecretKey()
	t.Setenv("ATRIUM_PASETO_V4_SECRET_KEY_HEX", secret.ExportHex())
	t.Setenv("ATRIUM_AUTH_REFRESH_TOKEN_BYTES", "16")
	_, err := LoadConfigFromEnv()
	if err != ErrConfig {
		t.Fatalf("expected ErrConfig for small refresh bytes, got %v", err)
	}
}

func TestLoadConfigFromEnv_AccessMustBeShorterThanRefresh(t *testing.T) {
	secret := paseto.NewV4AsymmetricSecretKey()
	t.Setenv("ATRIUM_PASETO_V4_SECRET_KEY_HEX", secret.ExportHex())
	t.Setenv("ATRIUM_AUTH_ACCESS_TTL", "48h")
	t.Setenv("ATRIUM_AUTH_REFRESH_TTL", "24h")
	_, err := LoadConfigFromEnv()
	if err != ErrConfig {
		t.Fatalf("expected ErrConfig for access >= refresh, got %v", err)
	}
}

func TestLoadConfigFromEnv_Valid(t *testing.T) {
	secret := paseto.NewV4AsymmetricSecretKey()
	t.Setenv("ATRIUM_PASETO_V4_SECRET_KEY_HEX", secret.ExportHex())
	t.Setenv("ATRIUM_AUTH_ISSUER", "atrium-test")
	t.Setenv("ATRIUM_AUTH_ACCESS_TTL", "10m")
	t.Setenv("ATRIUM_AUTH_REFRESH_TTL", "96h")
	t.Setenv("ATRIUM_AUTH_CLOCK_SKEW", "20s")
	t.Setenv("ATRIUM_AUTH_REFRESH_TOKEN_BYTES", "48")
	t.Setenv("ATRIUM_AUTH_LEDGER_RETENTION", "240h")
	t.Setenv("ATRIUM_AUTH_SWEEP_INTERVAL", "30m")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Issuer != "atrium-test" {
		t.Fatalf("issuer mismatch: %q", cfg.Issuer)
	}
	if cfg.AccessTokenTTL != 10*time.Minute {
		t.Fatalf("access ttl mismatch: %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 96*time.Hour {
		t.Fatalf("refresh ttl mismatch: %v", cfg.RefreshTokenTTL)
	}
	if cfg.ClockSkew != 20*time.Second {
		t.Fatalf("clock skew mismatch: %v", cfg.ClockSkew)
	}
	if cfg.RefreshTokenBytes != 48 {
		t.Fatalf("refresh token bytes mismatch: %d", cfg.RefreshTokenBytes)
	}
	if cfg.LedgerRetention != 240*time.Hour {
		t.Fatalf("retention mismatch: %v", cfg.LedgerRetention)
	}
	if cfg.SweepInterval != 30*time.Minute {
		t.Fatalf("sweep interval mismatch: %v", cfg.SweepInterval)
	}
}
