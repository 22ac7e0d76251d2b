package session

import (
	"errors"
	"testing"
	"time"

	paseto "aidanwoods.dev/go-paseto"

	"atrium/cmd/identity"
)

func testTokenManager(t *testing.T, ttl time.Duration) AccessTokenManager {
	t.Helper()

	cfg := DefaultConfig()
	cfg.AccessTokenTTL = ttl
	cfg.PasetoV4SecretKeyHex = paseto.NewV4AsymmetricSecretKey().ExportHex()

	mgr, err := NewPasetoV4PublicManager(cfg)
	if err != nil {
		t.Fatalf("NewPasetoV4PublicManager: %v", err)
	}
	return mgr
}

func mustULID(t *testing.T) string {
	t.Helper()
	id, err := identity.NewULID(time.Now())
	if err != nil {
		t.Fatalf("NewULID: %v", err)
	}
	return id
}

func testUser(t *testing.T) identity.User {
	t.Helper()
	return identity.User{
		ID:           mustULID(t),
		Email:        "ada@example.com",
		Name:         "Ada",
		Role:         identity.RoleStaff,
		Permissions:  identity.PermissionsFromFlags(true, true, false, false),
		TokenVersion: 3,
		IsActive:     true,
	}
}

func TestAccessToken_IssueVerifyRoundtrip(t *testing.T) {
	mgr := testTokenManager(t, 15*time.Minute)
	now := time.Now()
	u := testUser(t)
	sid := mustULID(t)

	tok, exp, err := mgr.Issue(u, sid, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.After(now) {
		t.Fatalf("expiry %v not after issue time %v", exp, now)
	}

	claims, err := mgr.Verify(tok, now)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != u.ID {
		t.Errorf("uid = %q, want %q", claims.UserID, u.ID)
	}
	if claims.SessionID != sid {
		t.Errorf("sid = %q, want %q", claims.SessionID, sid)
	}
	if claims.Email != u.Email {
		t.Errorf("email = %q, want %q", claims.Email, u.Email)
	}
	if claims.Role != identity.RoleStaff {
		t.Errorf("role = %q, want %q", claims.Role, identity.RoleStaff)
	}
	if claims.TokenVersion != 3 {
		t.Errorf("token version = %d, want 3", claims.TokenVersion)
	}
	if claims.Permissions != u.Permissions {
		t.Errorf("permissions = %v, want %v", claims.Permissions, u.Permissions)
	}
}

func TestAccessToken_ExpiredIsDistinctFromInvalid(t *testing.T) {
	mgr := testTokenManager(t, time.Minute)
	now := time.Now()
	u := testUser(t)

	tok, _, err := mgr.Issue(u, mustULID(t), now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Authentic but past expiry.
	_, err = mgr.Verify(tok, now.Add(2*time.Minute))
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expired token: got %v, want ErrTokenExpired", err)
	}

	// Garbage is invalid, never "expired".
	_, err = mgr.Verify("v4.public.garbage", now)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token: got %v, want ErrInvalidToken", err)
	}
}

func TestAccessToken_WallClockExpiredIsExpired(t *testing.T) {
	mgr := testTokenManager(t, time.Minute)

	// Issued far enough in the past that the token is expired in real wall
	// time, not just against a simulated verification clock. A parser rule
	// keyed to the wall clock would reject this token before the expiry
	// check and misreport it as invalid.
	issuedAt := time.Now().Add(-2 * time.Minute)
	tok, exp, err := mgr.Issue(testUser(t), mustULID(t), issuedAt)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.Before(time.Now()) {
		t.Fatalf("setup: expiry %v should already be in the past", exp)
	}

	if _, err := mgr.Verify(tok, time.Now()); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("wall-clock expired token: got %v, want ErrTokenExpired", err)
	}
}

func TestAccessToken_ExpiryBoundaryIsExclusive(t *testing.T) {
	mgr := testTokenManager(t, time.Minute)
	now := time.Now()

	tok, exp, err := mgr.Issue(testUser(t), mustULID(t), now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := mgr.Verify(tok, exp); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("token at exact expiry: got %v, want ErrTokenExpired", err)
	}
}

func TestAccessToken_RejectsForeignKey(t *testing.T) {
	mgr := testTokenManager(t, time.Minute)
	other := testTokenManager(t, time.Minute)
	now := time.Now()

	tok, _, err := mgr.Issue(testUser(t), mustULID(t), now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := other.Verify(tok, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign-key token: got %v, want ErrInvalidToken", err)
	}
}

func TestAccessToken_RejectsForeignIssuer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Issuer = "somebody-else"
	cfg.PasetoV4SecretKeyHex = paseto.NewV4AsymmetricSecretKey().ExportHex()

	foreign, err := NewPasetoV4PublicManager(cfg)
	if err != nil {
		t.Fatalf("NewPasetoV4PublicManager: %v", err)
	}

	cfg.Issuer = "atrium"
	ours, err := NewPasetoV4PublicManager(cfg)
	if err != nil {
		t.Fatalf("NewPasetoV4PublicManager: %v", err)
	}

	now := time.Now()
	tok, _, err := foreign.Issue(testUser(t), mustULID(t), now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := ours.Verify(tok, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign-issuer token: got %v, want ErrInvalidToken", err)
	}
}

func TestNewPasetoV4PublicManager_BadKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PasetoV4SecretKeyHex = "not-hex"

	if _, err := NewPasetoV4PublicManager(cfg); !errors.Is(err, ErrConfig) {
		t.Fatalf("bad key: got %v, want ErrConfig", err)
	}
}
