package identity

import "testing"

func TestPermissions_FlagsRoundTrip(t *testing.T) {
	s := PermissionsFromFlags(true, false, true, false)

	if !s.Has(PermManageMessages) || !s.Has(PermManageStaff) {
		t.Fatalf("expected messages+staff, got %v", s)
	}
	if s.Has(PermManageBookings) || s.Has(PermViewAnalytics) {
		t.Fatalf("unexpected grants in %v", s)
	}

	back := PermissionsFromMask(s.Mask())
	if back != s {
		t.Fatalf("mask round trip mismatch: %v != %v", back, s)
	}
}

func TestPermissionsFromMask_DropsUnknownBits(t *testing.T) {
	// Bits above the defined range must not survive a claims round trip.
	got := PermissionsFromMask(0xFF)
	if got != permAll {
		t.Fatalf("expected only defined bits, got %b", got)
	}
	if PermissionsFromMask(-1) != 0 {
		t.Fatalf("negative mask must yield empty set")
	}
}

func TestPermissions_Has_RequiresAllBits(t *testing.T) {
	s := PermManageMessages.With(PermViewAnalytics)
	if s.Has(PermManageMessages | PermManageStaff) {
		t.Fatalf("Has must require every requested bit")
	}
	if !s.Has(PermManageMessages | PermViewAnalytics) {
		t.Fatalf("Has must accept a full subset")
	}
}

func TestPermissions_String(t *testing.T) {
	if got := Permissions(0).String(); got != "none" {
		t.Fatalf("empty set: %q", got)
	}
	if got := permAll.String(); got != "messages,bookings,staff,analytics" {
		t.Fatalf("full set: %q", got)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Reception@Example.COM "); got != "reception@example.com" {
		t.Fatalf("normalize: %q", got)
	}
}
