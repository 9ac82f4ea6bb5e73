package model

import "time"

// Roles accepted in users.role and in the JWT "role" claim.
const (
	RoleAdmin    = "ADMIN"
	RoleStaff    = "STAFF"
	RoleCustomer = "CUSTOMER"
)

// User represents an application user record as stored in the
// `users` table.  Staff members and venue admins log in with
// email/password; customers only get an account when they book.
// Handlers define separate response types with JSON tags, so no
// tags are needed here.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  DisplayName  – name shown on claimed orders and bookings.
//  Role         – ADMIN, STAFF or CUSTOMER.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	DisplayName  string    // users.display_name
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.
// Each refresh token belongs to a user and carries metadata for
// expiry and revocation.  The plain token is never stored; only
// its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
