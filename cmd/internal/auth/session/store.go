package session

import (
	"context"
	"net"
	"time"
)

// Client captures the provenance of the device presenting a credential.
type Client struct {
	IP        net.IP
	UserAgent string
}

// TokenRow mirrors one atrium.refresh_tokens ledger row: a single issuance of
// a refresh token, hashed, with its revocation state and rotation lineage.
type TokenRow struct {
	ID        string
	UserID    string
	TokenHash string

	CreatedAt time.Time
	ExpiresAt time.Time

	// RevokedAt, once set, is never cleared. ReplacedBy is set at most once,
	// only by a successful rotation.
	RevokedAt  *time.Time
	ReplacedBy *string

	IP        net.IP
	UserAgent *string
}

// SessionRow mirrors one atrium.active_sessions row: the bookkeeping entity
// for a live rotation chain. RefreshTokenID always points at the current
// chain link.
type SessionRow struct {
	ID             string
	UserID         string
	RefreshTokenID string

	CreatedAt    time.Time
	LastActivity time.Time
	IsActive     bool
}

// SessionListing is one joined ledger+projection row for session display.
type SessionListing struct {
	SessionRow
	IP        net.IP
	UserAgent string
}

// Store abstracts persistence for the ledger and the session projection.
//
// Revocation-state mutations update both tables atomically; rotation itself
// runs through the service's explicit transaction, not through Store.
type Store interface {
	// GetTokenByHash loads a ledger row by refresh-token hash (no lock).
	GetTokenByHash(ctx context.Context, tokenHash string) (TokenRow, error)

	// GetSession loads a projection row by session id.
	GetSession(ctx context.Context, sessionID string) (SessionRow, error)

	// Revoke idempotently retires one token and deactivates its session.
	Revoke(ctx context.Context, now time.Time, tokenID string) error

	// RevokeAll retires every unrevoked token owned by userID and
	// deactivates every session.
	RevokeAll(ctx context.Context, now time.Time, userID string) error

	// RevokeOwnedSession revokes a session only if it belongs to userID.
	// Foreign or unknown ids return ErrSessionNotFound.
	RevokeOwnedSession(ctx context.Context, now time.Time, userID, sessionID string) error

	// Touch updates last_activity for a session.
	Touch(ctx context.Context, now time.Time, sessionID string) error

	// ListActive returns the live chains for a user, most recently active
	// first, joined to their current ledger rows.
	ListActive(ctx context.Context, now time.Time, userID string) ([]SessionListing, error)

	// DeleteExpiredBefore removes ledger rows whose expiry predates cutoff,
	// along with their dead projection rows. Returns rows removed.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
