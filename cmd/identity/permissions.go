package identity

import "strings"

// Permissions is a typed capability set resolved once at token issuance and
// carried in access-token claims as a bitmask. It replaces string-keyed
// permission checks at call sites.
type Permissions uint8

const (
	// PermManageMessages covers the contact-form inbox.
	PermManageMessages Permissions = 1 << iota
	// PermManageBookings covers consultations and bookings.
	PermManageBookings
	// PermManageStaff covers staff records and account administration.
	PermManageStaff
	// PermViewAnalytics covers dashboard analytics.
	PermViewAnalytics
)

// permAll is the mask of every defined capability bit.
const permAll = PermManageMessages | PermManageBookings | PermManageStaff | PermViewAnalytics

// Has reports whether every bit in p is present in the set.
func (s Permissions) Has(p Permissions) bool { return s&p == p }

// With returns the set extended by p.
func (s Permissions) With(p Permissions) Permissions { return s | p }

// Mask returns the bitmask truncated to defined capability bits, suitable for
// embedding in token claims.
func (s Permissions) Mask() int64 { return int64(s & permAll) }

// PermissionsFromMask rebuilds a Permissions set from a claims bitmask.
// Unknown bits are dropped so stale tokens cannot smuggle undefined grants.
func PermissionsFromMask(mask int64) Permissions {
	if mask < 0 {
		return 0
	}
	return Permissions(mask) & permAll
}

// PermissionsFromFlags assembles the set from the four stored user flags.
func PermissionsFromFlags(messages, bookings, staff, analytics bool) Permissions {
	var s Permissions
	if messages {
		s = s.With(PermManageMessages)
	}
	if bookings {
		s = s.With(PermManageBookings)
	}
	if staff {
		s = s.With(PermManageStaff)
	}
	if analytics {
		s = s.With(PermViewAnalytics)
	}
	return s
}

func (s Permissions) String() string {
	var names []string
	if s.Has(PermManageMessages) {
		names = append(names, "messages")
	}
	if s.Has(PermManageBookings) {
		names = append(names, "bookings")
	}
	if s.Has(PermManageStaff) {
		names = append(names, "staff")
	}
	if s.Has(PermViewAnalytics) {
		names = append(names, "analytics")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}
