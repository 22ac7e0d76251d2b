package identity

import (
	"context"
	"time"
)

// Role is the coarse staff role carried in access-token claims.
type Role string

const (
	// RoleAdmin can administer other staff accounts.
	RoleAdmin Role = "admin"
	// RoleStaff is a regular dashboard user.
	RoleStaff Role = "staff"
)

// User is Atrium's security principal: one staff account.
//
// TokenVersion is the per-user counter compared against the `ver` claim of
// access tokens; bumping it invalidates every previously issued access token
// at the verification boundary even before its natural expiry.
type User struct {
	ID    string
	Email string
	Name  string
	Role  Role

	Permissions  Permissions
	TokenVersion int64
	IsActive     bool

	CreatedAt time.Time
}

// UserAuth bundles a user with the password hash needed for login checks.
// The hash never leaves the credential boundary.
type UserAuth struct {
	User         User
	PasswordHash string
}

// CreateUserInput describes a staff account registration.
type CreateUserInput struct {
	Email       string
	Name        string
	Role        Role
	Permissions Permissions
	Password    string
	Now         time.Time
}

// Store is the credential persistence boundary consumed by the auth core.
type Store interface {
	// GetUserByID loads a user by id, including role, permission flags,
	// token version, and the active flag.
	GetUserByID(ctx context.Context, userID string) (User, error)

	// GetUserAuthByEmail loads a user plus password hash for login.
	GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error)

	// CreateUser registers a staff account with a freshly hashed password.
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
}
