package session

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"atrium/cmd/identity"
)

// Service implements the high-level auth-core operations: issuing sessions,
// rotating refresh tokens with reuse detection, per-session and per-user
// revocation, forced invalidation, and the session registry.
type Service struct {
	cfg     Config
	tokens  AccessTokenManager
	store   Store
	metrics *Metrics

	// pool is used for explicit transactions: rotation and forced
	// invalidation must observe and mutate their rows under one lock.
	pool *pgxpool.Pool
}

// Issued is the result of issuing or rotating a session. RefreshToken is the
// plain secret, disclosed here exactly once.
type Issued struct {
	SessionID   string
	TokenID     string
	AccessToken string
	AccessExp   time.Time

	RefreshToken string
	RefreshExp   time.Time
}

// NewService constructs a Service. The pool is required; metrics may be nil
// (counters become no-ops).
func NewService(cfg Config, pool *pgxpool.Pool, store Store, tokens AccessTokenManager, metrics *Metrics) *Service {
	return &Service{cfg: cfg, pool: pool, store: store, tokens: tokens, metrics: metrics}
}

// Issue creates a new ledger row and session for an authenticated user and
// returns fresh tokens. This is the only path that produces a raw refresh
// token; the ledger keeps the hash.
func (s *Service) Issue(ctx context.Context, now time.Time, user identity.User, client Client) (Issued, error) {
	refreshPlain, refreshHash, err := newOpaqueRefreshToken(s.cfg.RefreshTokenBytes)
	if err != nil {
		return Issued{}, err
	}
	refreshExp := now.Add(s.cfg.RefreshTokenTTL)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Issued{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tokenID, err := insertTokenTx(ctx, tx, now, user.ID, refreshHash, refreshExp, client)
	if err != nil {
		return Issued{}, err
	}
	sessionID, err := insertSessionTx(ctx, tx, now, user.ID, tokenID)
	if err != nil {
		return Issued{}, err
	}

	accessToken, accessExp, err := s.tokens.Issue(user, sessionID, now)
	if err != nil {
		return Issued{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Issued{}, err
	}

	s.metrics.sessionIssued()

	return Issued{
		SessionID:    sessionID,
		TokenID:      tokenID,
		AccessToken:  accessToken,
		AccessExp:    accessExp,
		RefreshToken: refreshPlain,
		RefreshExp:   refreshExp,
	}, nil
}

// Rotate exchanges a valid refresh token for a fresh access/refresh pair,
// retiring the presented token and linking it to its successor.
//
// Security model:
//   - Lock the ledger row by hash (SELECT ... FOR UPDATE).
//   - A row that is already revoked means the token was presented after
//     retirement: treat as theft, revoke every token for the owner, and
//     return ErrReuseDetected inside a ReuseError. A racing legitimate retry
//     takes the same path; the system fails closed.
//   - Expiry and account checks run only for unrevoked rows.
//   - Otherwise retire the old row immediately, insert the successor, link
//     replaced_by, and repoint the chain's session.
func (s *Service) Rotate(ctx context.Context, now time.Time, refreshTokenPlain string, client Client) (Issued, identity.User, error) {
	refreshTokenPlain = strings.TrimSpace(refreshTokenPlain)
	// Sanity bounds to avoid hashing pathological inputs.
	if refreshTokenPlain == "" || len(refreshTokenPlain) > 4096 {
		return Issued{}, identity.User{}, ErrInvalidToken
	}

	refreshHash := hashRefreshTokenHex(refreshTokenPlain)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Issued{}, identity.User{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row, err := getTokenByHashForUpdateTx(ctx, tx, refreshHash)
	if err != nil {
		return Issued{}, identity.User{}, err
	}

	// Reuse detection before anything else: a retired token presented again
	// is the theft signal, even if it has also expired since.
	if row.RevokedAt != nil {
		if err := revokeAllTx(ctx, tx, now, row.UserID); err != nil {
			return Issued{}, identity.User{}, err
		}
		if err := tx.Commit(ctx); err != nil {
			return Issued{}, identity.User{}, err
		}
		s.metrics.reuseDetected()
		return Issued{}, identity.User{}, ReuseError{UserID: row.UserID, TokenID: row.ID}
	}

	// Exclusive boundary: expires_at == now is expired.
	if !row.ExpiresAt.After(now) {
		return Issued{}, identity.User{}, ErrTokenExpired
	}

	user, err := getUserTx(ctx, tx, row.UserID)
	if err != nil {
		return Issued{}, identity.User{}, err
	}
	if !user.IsActive {
		return Issued{}, identity.User{}, ErrAccountDisabled
	}

	newPlain, newHash, err := newOpaqueRefreshToken(s.cfg.RefreshTokenBytes)
	if err != nil {
		return Issued{}, identity.User{}, err
	}
	newExp := now.Add(s.cfg.RefreshTokenTTL)

	newTokenID, err := insertTokenTx(ctx, tx, now, row.UserID, newHash, newExp, client)
	if err != nil {
		return Issued{}, identity.User{}, err
	}
	if err := markReplacedTx(ctx, tx, now, row.ID, newTokenID); err != nil {
		return Issued{}, identity.User{}, err
	}
	sessionID, err := repointSessionTx(ctx, tx, now, row.ID, newTokenID)
	if err != nil {
		return Issued{}, identity.User{}, err
	}

	accessToken, accessExp, err := s.tokens.Issue(user, sessionID, now)
	if err != nil {
		return Issued{}, identity.User{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Issued{}, identity.User{}, err
	}

	s.metrics.rotated()

	return Issued{
		SessionID:    sessionID,
		TokenID:      newTokenID,
		AccessToken:  accessToken,
		AccessExp:    accessExp,
		RefreshToken: newPlain,
		RefreshExp:   newExp,
	}, user, nil
}

// IssueAccessToken mints a short-lived access token for an existing session.
func (s *Service) IssueAccessToken(user identity.User, sessionID string, now time.Time) (string, time.Time, error) {
	return s.tokens.Issue(user, sessionID, now)
}

// VerifyAccessToken verifies signature and expiry statelessly. Token-version
// staleness is the middleware's responsibility; this call never touches the
// store.
func (s *Service) VerifyAccessToken(token string, now time.Time) (AccessClaims, error) {
	return s.tokens.Verify(token, now)
}

// RevokeByRefreshToken retires the chain that owns the presented refresh
// token, after the caller has confirmed it belongs to ownerID. Used for
// explicit per-session logout.
func (s *Service) RevokeByRefreshToken(ctx context.Context, now time.Time, refreshTokenPlain, ownerID string) error {
	refreshTokenPlain = strings.TrimSpace(refreshTokenPlain)
	if refreshTokenPlain == "" || len(refreshTokenPlain) > 4096 {
		return ErrInvalidToken
	}

	row, err := s.store.GetTokenByHash(ctx, hashRefreshTokenHex(refreshTokenPlain))
	if err != nil {
		return err
	}
	if row.UserID != ownerID {
		// Do not reveal that the token exists under another account.
		return ErrInvalidToken
	}

	if err := s.store.Revoke(ctx, now, row.ID); err != nil {
		return err
	}
	s.metrics.revoked("session")
	return nil
}

// RevokeSessionByID retires the chain behind a known session id. Used for
// logout when the client presents no refresh token.
func (s *Service) RevokeSessionByID(ctx context.Context, now time.Time, userID, sessionID string) error {
	if err := s.store.RevokeOwnedSession(ctx, now, userID, sessionID); err != nil {
		return err
	}
	s.metrics.revoked("session")
	return nil
}

// RevokeAll retires every live token for a user (logout everywhere).
func (s *Service) RevokeAll(ctx context.Context, now time.Time, userID string) error {
	if err := s.store.RevokeAll(ctx, now, userID); err != nil {
		return err
	}
	s.metrics.revoked("user")
	return nil
}

// InvalidateUserTokens performs forced invalidation after a security-relevant
// change (password, role, permissions, administrative disable): it bumps the
// user's token version and revokes every live refresh token in one
// transaction. Access tokens already in the wild stay cryptographically valid
// until expiry but fail the middleware's version check immediately.
func (s *Service) InvalidateUserTokens(ctx context.Context, now time.Time, userID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := bumpTokenVersionTx(ctx, tx, userID); err != nil {
		return err
	}
	if err := revokeAllTx(ctx, tx, now, userID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.metrics.revoked("user")
	return nil
}

// TouchSession updates last_activity for a session. Best-effort telemetry:
// callers log failures and move on.
func (s *Service) TouchSession(ctx context.Context, now time.Time, sessionID string) error {
	return s.store.Touch(ctx, now, sessionID)
}

// ListSessions returns the user's live sessions, most recently active first,
// with provenance parsed into coarse device labels.
func (s *Service) ListSessions(ctx context.Context, now time.Time, userID string) ([]SessionView, error) {
	listings, err := s.store.ListActive(ctx, now, userID)
	if err != nil {
		return nil, err
	}

	views := make([]SessionView, 0, len(listings))
	for _, l := range listings {
		views = append(views, newSessionView(l))
	}
	return views, nil
}
