package token

import "errors"

// Sentinel errors from the HMAC key policy. Startup validation matches on
// these to produce actionable messages.
var (
	// ErrHMACKeyMissing: ATRIUM_TOKEN_HMAC_KEY is unset or blank.
	ErrHMACKeyMissing = errors.New("token HMAC key missing")
	// ErrHMACKeyTooShort: the key is set but under the required byte length.
	ErrHMACKeyTooShort = errors.New("token HMAC key too short")
)
