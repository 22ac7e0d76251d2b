package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL (atrium.users).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed credential store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, OpError{Op: "identity.NewPostgresStore", Kind: ErrInvalidInput, Msg: "nil pool"}
	}
	return &PostgresStore{pool: pool}, nil
}

const userColumns = `
	id, email, name, role,
	can_manage_messages, can_manage_bookings, can_manage_staff, can_view_analytics,
	token_version, is_active, created_at
`

func scanUser(row pgx.Row) (User, error) {
	var (
		u                                User
		role                             string
		msgs, bookings, staff, analytics bool
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &role,
		&msgs, &bookings, &staff, &analytics,
		&u.TokenVersion, &u.IsActive, &u.CreatedAt,
	)
	if err != nil {
		return User{}, err
	}
	u.Role = Role(role)
	u.Permissions = PermissionsFromFlags(msgs, bookings, staff, analytics)
	return u, nil
}

// GetUserByID loads a user by id.
func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	const op = "identity.GetUserByID"

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "empty user id"}
	}

	u, err := scanUser(s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM atrium.users
		WHERE id = $1
	`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, OpError{Op: op, Kind: ErrNotFound}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUserAuthByEmail loads a user plus password hash for login verification.
func (s *PostgresStore) GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error) {
	const op = "identity.GetUserAuthByEmail"

	norm := NormalizeEmail(email)
	if norm == "" {
		return UserAuth{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "empty email"}
	}

	var (
		u                                User
		role                             string
		msgs, bookings, staff, analytics bool
		hash                             string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT
			id, email, name, role,
			can_manage_messages, can_manage_bookings, can_manage_staff, can_view_analytics,
			token_version, is_active, created_at,
			password_hash
		FROM atrium.users
		WHERE email_norm = $1
	`, norm).Scan(
		&u.ID, &u.Email, &u.Name, &role,
		&msgs, &bookings, &staff, &analytics,
		&u.TokenVersion, &u.IsActive, &u.CreatedAt,
		&hash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserAuth{}, OpError{Op: op, Kind: ErrNotFound}
	}
	if err != nil {
		return UserAuth{}, err
	}

	u.Role = Role(role)
	u.Permissions = PermissionsFromFlags(msgs, bookings, staff, analytics)
	return UserAuth{User: u, PasswordHash: hash}, nil
}

// CreateUser registers a staff account. Email uniqueness is enforced on the
// normalized form.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	email := strings.TrimSpace(in.Email)
	norm := NormalizeEmail(email)
	name := strings.TrimSpace(in.Name)
	if norm == "" || name == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "email and name are required"}
	}

	role := in.Role
	if role != RoleAdmin && role != RoleStaff {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "unknown role"}
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: err.Error()}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO atrium.users (
			id, email, email_norm, name, role, password_hash,
			can_manage_messages, can_manage_bookings, can_manage_staff, can_view_analytics,
			token_version, is_active, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			0, TRUE, $11
		)
	`, id, email, norm, name, string(role), hash,
		in.Permissions.Has(PermManageMessages),
		in.Permissions.Has(PermManageBookings),
		in.Permissions.Has(PermManageStaff),
		in.Permissions.Has(PermViewAnalytics),
		now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ConflictError{Op: op, Field: "email"}
		}
		return User{}, err
	}

	return User{
		ID:          id,
		Email:       email,
		Name:        name,
		Role:        role,
		Permissions: in.Permissions,
		IsActive:    true,
		CreatedAt:   now,
	}, nil
}
