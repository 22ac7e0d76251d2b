// Package session implements Atrium's refresh-token ledger, rotation
// protocol, and session registry.
//
// Refresh tokens are opaque random strings stored only as hashes in
// atrium.refresh_tokens (the ledger, source of truth). Each live rotation
// chain owns one row in atrium.active_sessions (a read-optimized projection),
// whose refresh_token_id is repointed at every rotation; both tables mutate
// inside one transaction so the projection never diverges.
//
// Rotation retires the presented token immediately (revoked_at = now; there
// is no grace window, so a rotated token presented again is always treated as
// reuse). Reuse of a retired token revokes every live token for the owning
// user: the system cannot tell an attacker replay from a legitimate
// double-submit, so it fails closed.
//
// Access tokens are PASETO v4.public, short-lived, and carry the identity,
// role, permission, and token-version claims needed for store-free
// verification on the request path.
package session
