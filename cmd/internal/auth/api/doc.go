// Package api exposes the auth core over HTTP.
//
// All authentication failures collapse to one constant-shape 401 so the wire
// never reveals whether a credential was unknown, expired, revoked, or
// replayed. The specific kind goes to logs and the audit trail only.
package api
