// Package service provides password hashing and bearer token services.
package service

import (
	"time"

	authDomain "github.com/allisson/treatment-register/internal/auth/domain"
)

// PasswordService hashes and verifies account passwords with Argon2id.
type PasswordService interface {
	// Hash returns the encoded Argon2id hash of plain.
	Hash(plain string) (string, error)

	// Compare reports whether plain matches hashed in constant time.
	Compare(plain, hashed string) bool
}

// TokenService issues and verifies signed bearer tokens.
type TokenService interface {
	// Issue signs a token for principal valid from now until the returned expiration.
	Issue(principal *authDomain.Principal, now time.Time) (string, time.Time, error)

	// Parse verifies token and returns its principal. Returns ErrInvalidToken or
	// ErrTokenExpired.
	Parse(token string) (*authDomain.Principal, error)
}
