package session

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5"

	"atrium/cmd/identity"
)

// Transaction helpers for the rotation protocol and forced invalidation.
// Rotation must observe and mutate the ledger under one row lock, so these
// operate on an explicit pgx.Tx rather than the pool.

func getTokenByHashForUpdateTx(ctx context.Context, tx pgx.Tx, tokenHash string) (TokenRow, error) {
	t, err := scanTokenRow(tx.QueryRow(ctx, `
		SELECT `+tokenColumns+`
		FROM atrium.refresh_tokens
		WHERE token_hash = $1
		FOR UPDATE
	`, tokenHash))
	if errors.Is(err, pgx.ErrNoRows) {
		return TokenRow{}, ErrInvalidToken
	}
	if err != nil {
		return TokenRow{}, err
	}
	return t, nil
}

func insertTokenTx(
	ctx context.Context,
	tx pgx.Tx,
	now time.Time,
	userID string,
	tokenHash string,
	expiresAt time.Time,
	client Client,
) (string, error) {
	id, err := identity.NewULID(now)
	if err != nil {
		return "", err
	}

	var ip net.IP
	if client.IP != nil {
		ip = client.IP
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO atrium.refresh_tokens (
			id, user_id, token_hash,
			created_at, expires_at, revoked_at, replaced_by,
			ip, user_agent
		) VALUES (
			$1, $2, $3,
			$4, $5, NULL, NULL,
			$6, $7
		)
	`, id, userID, tokenHash, now, expiresAt, ip, nullIfEmpty(client.UserAgent))
	if err != nil {
		return "", err
	}
	return id, nil
}

func insertSessionTx(ctx context.Context, tx pgx.Tx, now time.Time, userID, tokenID string) (string, error) {
	id, err := identity.NewULID(now)
	if err != nil {
		return "", err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO atrium.active_sessions (
			id, user_id, refresh_token_id, created_at, last_activity, is_active
		) VALUES ($1, $2, $3, $4, $4, TRUE)
	`, id, userID, tokenID)
	if err != nil {
		return "", err
	}
	return id, nil
}

// markReplacedTx retires the old ledger row and links it to its successor.
// replaced_by is written exactly once: the row was locked FOR UPDATE and was
// observed unrevoked before this call.
func markReplacedTx(ctx context.Context, tx pgx.Tx, now time.Time, oldTokenID, newTokenID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE atrium.refresh_tokens
		SET revoked_at = $2,
		    replaced_by = $3
		WHERE id = $1
	`, oldTokenID, now, newTokenID)
	return err
}

// repointSessionTx moves the chain's session to the new ledger row. The
// session keeps its identity across rotations.
func repointSessionTx(ctx context.Context, tx pgx.Tx, now time.Time, oldTokenID, newTokenID string) (string, error) {
	var sessionID string
	err := tx.QueryRow(ctx, `
		UPDATE atrium.active_sessions
		SET refresh_token_id = $2,
		    last_activity = $3
		WHERE refresh_token_id = $1 AND is_active
		RETURNING id
	`, oldTokenID, newTokenID, now).Scan(&sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

func revokeTokenTx(ctx context.Context, tx pgx.Tx, now time.Time, tokenID string) error {
	if _, err := tx.Exec(ctx, `
		UPDATE atrium.refresh_tokens
		SET revoked_at = COALESCE(revoked_at, $2)
		WHERE id = $1
	`, tokenID, now); err != nil {
		return err
	}

	_, err := tx.Exec(ctx, `
		UPDATE atrium.active_sessions
		SET is_active = FALSE
		WHERE refresh_token_id = $1
	`, tokenID)
	return err
}

func revokeAllTx(ctx context.Context, tx pgx.Tx, now time.Time, userID string) error {
	if _, err := tx.Exec(ctx, `
		UPDATE atrium.refresh_tokens
		SET revoked_at = COALESCE(revoked_at, $2)
		WHERE user_id = $1 AND revoked_at IS NULL
	`, userID, now); err != nil {
		return err
	}

	_, err := tx.Exec(ctx, `
		UPDATE atrium.active_sessions
		SET is_active = FALSE
		WHERE user_id = $1 AND is_active
	`, userID)
	return err
}

// getUserTx loads the owning user inside the rotation transaction so the
// disabled-account check and the issued claims observe one consistent row.
func getUserTx(ctx context.Context, tx pgx.Tx, userID string) (identity.User, error) {
	var (
		u                                identity.User
		role                             string
		msgs, bookings, staff, analytics bool
	)
	err := tx.QueryRow(ctx, `
		SELECT
			id, email, name, role,
			can_manage_messages, can_manage_bookings, can_manage_staff, can_view_analytics,
			token_version, is_active, created_at
		FROM atrium.users
		WHERE id = $1
	`, userID).Scan(
		&u.ID, &u.Email, &u.Name, &role,
		&msgs, &bookings, &staff, &analytics,
		&u.TokenVersion, &u.IsActive, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return identity.User{}, ErrAccountDisabled
	}
	if err != nil {
		return identity.User{}, err
	}
	u.Role = identity.Role(role)
	u.Permissions = identity.PermissionsFromFlags(msgs, bookings, staff, analytics)
	return u, nil
}

// bumpTokenVersionTx increments the per-user token version, retiring every
// access token issued with the old value at the verification boundary.
func bumpTokenVersionTx(ctx context.Context, tx pgx.Tx, userID string) (int64, error) {
	var version int64
	err := tx.QueryRow(ctx, `
		UPDATE atrium.users
		SET token_version = token_version + 1
		WHERE id = $1
		RETURNING token_version
	`, userID).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrAccountDisabled
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
