package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidToken is returned for unknown refresh-token hashes and for
	// access tokens that fail signature or claims validation. Unknown hashes
	// are indistinguishable from garbage input on purpose.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when a token is past its expiry. The
	// boundary is exclusive of validity: expires_at == now is expired.
	ErrTokenExpired = errors.New("token expired")

	// ErrReuseDetected is returned when an already-retired refresh token is
	// presented again. By the time the caller sees it, every token for the
	// owning user has been revoked.
	ErrReuseDetected = errors.New("refresh token reuse detected")

	// ErrAccountDisabled is returned when the owning user was deactivated
	// after the token was issued.
	ErrAccountDisabled = errors.New("account disabled")

	// ErrSessionNotFound is returned when a session id does not exist or does
	// not belong to the requesting user.
	ErrSessionNotFound = errors.New("session not found")

	// ErrConfig is returned for invalid configuration, including unavailable
	// signing key material. It is a startup fault, never a request-time one.
	ErrConfig = errors.New("invalid config")
)

// ReuseError carries the owning user of a reuse incident so callers can
// attribute the audit event. It unwraps to ErrReuseDetected.
type ReuseError struct {
	UserID  string
	TokenID string
}

func (e ReuseError) Error() string {
	return fmt.Sprintf("%s: user %s", ErrReuseDetected.Error(), e.UserID)
}

func (e ReuseError) Unwrap() error { return ErrReuseDetected }
