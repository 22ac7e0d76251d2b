// Package identity is Atrium's credential store boundary: staff accounts,
// their roles and permission flags, password verification, and the per-user
// token version used to invalidate issued access tokens early.
//
// The auth core consumes this package read-mostly; the only security-relevant
// write it performs is the token-version bump during forced invalidation,
// which runs inside the session package's transaction.
package identity
