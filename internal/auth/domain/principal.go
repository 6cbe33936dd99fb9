// Package domain defines the authenticated caller and the bearer token contract.
package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/treatment-register/internal/errors"
	userDomain "github.com/allisson/treatment-register/internal/user/domain"
)

// Principal is the authenticated user of a request.
type Principal struct {
	UserID uuid.UUID
	Roles  []userDomain.Role
}

// HasAnyRole reports whether the principal holds at least one of roles.
func (p *Principal) HasAnyRole(roles ...userDomain.Role) bool {
	for _, role := range roles {
		if slices.Contains(p.Roles, role) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the principal is an administrator.
func (p *Principal) IsAdmin() bool {
	return p.HasAnyRole(userDomain.RoleAdmin)
}

// IsDPO reports whether the principal is a data protection officer.
func (p *Principal) IsDPO() bool {
	return p.HasAnyRole(userDomain.RoleDPO)
}

// IssueTokenInput contains the credentials exchanged for a bearer token.
type IssueTokenInput struct {
	Email    string
	Password string
}

// IssueTokenOutput contains an issued bearer token.
type IssueTokenOutput struct {
	Token     string
	ExpiresAt time.Time
}

var (
	// ErrInvalidToken indicates the bearer token is malformed, forged or issued for another audience.
	ErrInvalidToken = errors.Wrap(errors.ErrUnauthorized, "invalid token")

	// ErrTokenExpired indicates the bearer token is past its expiration.
	ErrTokenExpired = errors.Wrap(errors.ErrUnauthorized, "token expired")

	// ErrAccountLocked indicates too many failed logins for the account.
	ErrAccountLocked = errors.Wrap(errors.ErrLocked, "account temporarily locked after repeated failed logins")

	// ErrSigningKeyTooShort indicates the configured JWT secret is too weak.
	ErrSigningKeyTooShort = errors.Wrap(errors.ErrInvalidInput, "jwt secret must be at least 32 bytes")
)
