package model

import (
	"strings"
	"time"
)

// Role tags what an identity may do. Only RoleAdmin exists today; public
// readers never hold an identity at all.
type Role string

const RoleAdmin Role = "admin"

// User represents a row of the `users` table: the credential record of the
// single privileged account.
//
// Fields:
//
//	ID           – opaque UUID primary key.
//	Email        – unique, stored lower-cased.
//	PasswordHash – bcrypt hash.
//	Role         – role name (admin).
type User struct {
	ID           string    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Identity is the public view of a user: what a session token carries and
// what the API returns. It never includes the password hash.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Identity strips the credential fields from u.
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Role: u.Role}
}

// NormalizeEmail trims and lower-cases an address so lookups compare
// case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
