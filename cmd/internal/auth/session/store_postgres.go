package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL (atrium.refresh_tokens and
// atrium.active_sessions).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed ledger/session store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const tokenColumns = `
	id, user_id, token_hash,
	created_at, expires_at, revoked_at, replaced_by,
	ip, user_agent
`

func scanTokenRow(row pgx.Row) (TokenRow, error) {
	var t TokenRow
	err := row.Scan(
		&t.ID, &t.UserID, &t.TokenHash,
		&t.CreatedAt, &t.ExpiresAt, &t.RevokedAt, &t.ReplacedBy,
		&t.IP, &t.UserAgent,
	)
	return t, err
}

// GetTokenByHash loads a ledger row by hash. The token_hash index makes this
// the hot-path point lookup of every rotation.
func (s *PostgresStore) GetTokenByHash(ctx context.Context, tokenHash string) (TokenRow, error) {
	t, err := scanTokenRow(s.pool.QueryRow(ctx, `
		SELECT `+tokenColumns+`
		FROM atrium.refresh_tokens
		WHERE token_hash = $1
	`, tokenHash))
	if errors.Is(err, pgx.ErrNoRows) {
		return TokenRow{}, ErrInvalidToken
	}
	if err != nil {
		return TokenRow{}, err
	}
	return t, nil
}

// GetSession loads a projection row by id.
func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (SessionRow, error) {
	var r SessionRow
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, refresh_token_id, created_at, last_activity, is_active
		FROM atrium.active_sessions
		WHERE id = $1
	`, sessionID).Scan(
		&r.ID, &r.UserID, &r.RefreshTokenID,
		&r.CreatedAt, &r.LastActivity, &r.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return SessionRow{}, ErrSessionNotFound
	}
	if err != nil {
		return SessionRow{}, err
	}
	return r, nil
}

// Revoke idempotently retires one token and deactivates its session. Both
// updates run in one transaction so the projection cannot drift.
func (s *PostgresStore) Revoke(ctx context.Context, now time.Time, tokenID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := revokeTokenTx(ctx, tx, now, tokenID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RevokeAll retires every unrevoked token for a user and deactivates every
// session.
func (s *PostgresStore) RevokeAll(ctx context.Context, now time.Time, userID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := revokeAllTx(ctx, tx, now, userID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RevokeOwnedSession revokes a session after verifying ownership. The check
// is independent of role so one user cannot revoke another's session by
// guessing ids.
func (s *PostgresStore) RevokeOwnedSession(ctx context.Context, now time.Time, userID, sessionID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var tokenID string
	err = tx.QueryRow(ctx, `
		SELECT refresh_token_id
		FROM atrium.active_sessions
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, sessionID, userID).Scan(&tokenID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}

	if err := revokeTokenTx(ctx, tx, now, tokenID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Touch updates last_activity. Callers treat failures as telemetry loss, not
// as request failures.
func (s *PostgresStore) Touch(ctx context.Context, now time.Time, sessionID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE atrium.active_sessions
		SET last_activity = $2
		WHERE id = $1 AND is_active
	`, sessionID, now)
	return err
}

// ListActive returns live chains joined to their current ledger rows,
// most recently active first.
func (s *PostgresStore) ListActive(ctx context.Context, now time.Time, userID string) ([]SessionListing, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			s.id, s.user_id, s.refresh_token_id,
			s.created_at, s.last_activity, s.is_active,
			t.ip, t.user_agent
		FROM atrium.active_sessions s
		JOIN atrium.refresh_tokens t ON t.id = s.refresh_token_id
		WHERE s.user_id = $1
		  AND s.is_active
		  AND t.revoked_at IS NULL
		  AND t.expires_at > $2
		ORDER BY s.last_activity DESC
	`, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionListing
	for rows.Next() {
		var (
			l  SessionListing
			ua *string
		)
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.RefreshTokenID,
			&l.CreatedAt, &l.LastActivity, &l.IsActive,
			&l.IP, &ua,
		); err != nil {
			return nil, err
		}
		if ua != nil {
			l.UserAgent = *ua
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// DeleteExpiredBefore removes ledger rows expired before cutoff together with
// their dead projection rows. Retention cleanup only; never touches live
// chains.
func (s *PostgresStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		DELETE FROM atrium.active_sessions s
		USING atrium.refresh_tokens t
		WHERE s.refresh_token_id = t.id
		  AND t.expires_at < $1
	`, cutoff); err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM atrium.refresh_tokens
		WHERE expires_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
