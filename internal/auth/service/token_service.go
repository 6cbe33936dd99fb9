package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	authDomain "github.com/allisson/treatment-register/internal/auth/domain"
	userDomain "github.com/allisson/treatment-register/internal/user/domain"
)

const (
	tokenIssuer       = "treatment-register"
	minSigningKeySize = 32
)

// claims are the JWT claims of an access token. The subject is the user id.
type claims struct {
	Roles []userDomain.Role `json:"roles"`
	jwt.RegisteredClaims
}

// jwtTokenService implements TokenService with HS256 JWTs.
type jwtTokenService struct {
	signingKey []byte
	expiration time.Duration
	now        func() time.Time
}

// NewTokenService creates a TokenService. secret must be at least 32 bytes.
func NewTokenService(secret string, expiration time.Duration) (TokenService, error) {
	if len(secret) < minSigningKeySize {
		return nil, authDomain.ErrSigningKeyTooShort
	}
	return &jwtTokenService{
		signingKey: []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}, nil
}

// Issue signs an access token for principal.
func (s *jwtTokenService) Issue(principal *authDomain.Principal, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.expiration).Truncate(time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Roles: principal.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature, issuer and expiration of token.
func (s *jwtTokenService) Parse(token string) (*authDomain.Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, authDomain.ErrTokenExpired
		}
		return nil, authDomain.ErrInvalidToken
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, authDomain.ErrInvalidToken
	}
	return &authDomain.Principal{UserID: userID, Roles: c.Roles}, nil
}
