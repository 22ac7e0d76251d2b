package session

import "testing"

func TestNewOpaqueRefreshToken(t *testing.T) {
	plain, hash, err := newOpaqueRefreshToken(32)
	if err != nil {
		t.Fatalf("newOpaqueRefreshToken: %v", err)
	}
	if plain == "" {
		t.Fatal("empty plain token")
	}
	if len(hash) != 64 {
		t.Fatalf("hash length = %d, want 64 hex chars", len(hash))
	}
	if hashRefreshTokenHex(plain) != hash {
		t.Fatal("hash does not match hash of plain token")
	}
}

func TestNewOpaqueRefreshToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		plain, _, err := newOpaqueRefreshToken(32)
		if err != nil {
			t.Fatalf("newOpaqueRefreshToken: %v", err)
		}
		if seen[plain] {
			t.Fatal("duplicate refresh token generated")
		}
		seen[plain] = true
	}
}
