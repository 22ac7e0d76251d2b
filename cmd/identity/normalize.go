package identity

import "strings"

// NormalizeEmail performs case-insensitive canonicalization for lookups and
// uniqueness. Staff emails are within one organization, so trim + lower-case
// is sufficient.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
