// Package domain defines the core user domain entities and types.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/treatment-register/internal/errors"
)

// Role is an authorization role held by a user.
type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
	RoleDPO   Role = "ROLE_DPO"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleDPO:
		return true
	}
	return false
}

// User represents an account of the register.
//
// Email is a sensitive field: it is stored encrypted. EmailHash is the lookup key
// for the encrypted email and uses the same hash as the deletion audit log.
type User struct {
	ID        uuid.UUID
	Email     string
	EmailHash string
	Password  string
	Roles     []Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role Role) bool {
	return slices.Contains(u.Roles, role)
}

// IsAdmin reports whether the user holds the administrator role.
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// IsDPO reports whether the user holds the data protection officer role.
func (u *User) IsDPO() bool {
	return u.HasRole(RoleDPO)
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashIdentity returns the SHA-256 hex digest of a natural identifier. The hash is
// one-way: it detects a known identity without storing it.
func HashIdentity(naturalID string) string {
	sum := sha256.Sum256([]byte(naturalID))
	return hex.EncodeToString(sum[:])
}

// EmailDomain returns the part of email after the last "@", or "" when absent.
func EmailDomain(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 {
		return ""
	}
	return email[i+1:]
}

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates a user with the same email already exists.
	ErrUserAlreadyExists = errors.Wrap(errors.ErrConflict, "user already exists")

	// ErrIdentityErased indicates the email belongs to an identity that was erased.
	ErrIdentityErased = errors.Wrap(errors.ErrConflict, "identity was previously erased")

	// ErrInvalidCredentials indicates the email or password does not match.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrInvalidRole indicates an unknown role was requested.
	ErrInvalidRole = errors.Wrap(errors.ErrInvalidInput, "invalid role")

	// ErrLastAdminDemotion indicates an update would leave the register without an administrator.
	ErrLastAdminDemotion = errors.Wrap(errors.ErrForbidden, "cannot remove the role of the last administrator")
)
