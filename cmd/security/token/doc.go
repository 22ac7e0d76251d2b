// Package token provides the refresh-token hashing primitives for Atrium.
//
// Refresh tokens are opaque client-held secrets; the server persists only a
// one-way digest of them. This package is the single source of truth for how
// that digest is computed:
//
//   - HMAC-SHA256(token, key) when ATRIUM_TOKEN_HMAC_KEY is configured.
//   - SHA-256(token) as a dev fallback when no key is present.
//
// Output is always a 64-char hex string so ledger lookups are stable point
// queries. Deployments that set ATRIUM_REQUIRE_TOKEN_HMAC enforce the HMAC
// mode (and a minimum key size) at startup.
package token
