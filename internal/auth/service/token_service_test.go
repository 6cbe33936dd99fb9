package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/treatment-register/internal/auth/domain"
	userDomain "github.com/allisson/treatment-register/internal/user/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short", time.Hour)
	assert.ErrorIs(t, err, authDomain.ErrSigningKeyTooShort)
}

func TestTokenService_IssueAndParse(t *testing.T) {
	svc, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)

	principal := &authDomain.Principal{
		UserID: uuid.Must(uuid.NewV7()),
		Roles:  []userDomain.Role{userDomain.RoleUser, userDomain.RoleDPO},
	}
	now := time.Now()

	token, expiresAt, err := svc.Issue(principal, now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), expiresAt, time.Second)

	parsed, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, principal.UserID, parsed.UserID)
	assert.Equal(t, principal.Roles, parsed.Roles)
}

func TestTokenService_Parse_Errors(t *testing.T) {
	svc, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	principal := &authDomain.Principal{UserID: uuid.Must(uuid.NewV7())}

	t.Run("expired", func(t *testing.T) {
		token, _, err := svc.Issue(principal, time.Now().Add(-2*time.Hour))
		require.NoError(t, err)

		_, err = svc.Parse(token)
		assert.ErrorIs(t, err, authDomain.ErrTokenExpired)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewTokenService("fedcba9876543210fedcba9876543210", time.Hour)
		require.NoError(t, err)
		token, _, err := other.Issue(principal, time.Now())
		require.NoError(t, err)

		_, err = svc.Parse(token)
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Parse("not.a.jwt")
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   principal.UserID.String(),
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.Parse(signed)
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
	})

	t.Run("missing expiration", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject: principal.UserID.String(),
			Issuer:  tokenIssuer,
		})
		signed, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = svc.Parse(signed)
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
	})
}
