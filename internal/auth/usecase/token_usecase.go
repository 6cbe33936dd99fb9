// Package usecase implements bearer token issuance.
package usecase

import (
	"context"
	"log/slog"
	"time"

	authDomain "github.com/allisson/treatment-register/internal/auth/domain"
	authService "github.com/allisson/treatment-register/internal/auth/service"
	apperrors "github.com/allisson/treatment-register/internal/errors"
	userDomain "github.com/allisson/treatment-register/internal/user/domain"
)

// UserAuthenticator verifies account credentials.
type UserAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (*userDomain.User, error)
}

// TokenUseCase exchanges credentials for bearer tokens.
type TokenUseCase interface {
	Issue(ctx context.Context, input *authDomain.IssueTokenInput) (*authDomain.IssueTokenOutput, error)
}

type tokenUseCase struct {
	users        UserAuthenticator
	tokenService authService.TokenService
	attempts     authService.LoginAttemptTracker
	now          func() time.Time
	logger       *slog.Logger
}

// NewTokenUseCase creates a new TokenUseCase. A nil attempts tracker disables the
// failed login lockout.
func NewTokenUseCase(
	users UserAuthenticator,
	tokenService authService.TokenService,
	attempts authService.LoginAttemptTracker,
	logger *slog.Logger,
) TokenUseCase {
	return &tokenUseCase{
		users:        users,
		tokenService: tokenService,
		attempts:     attempts,
		now:          time.Now,
		logger:       logger,
	}
}

// Issue authenticates the credentials and signs a token carrying the user's roles.
// Failed logins are counted per email hash; a locked account gets ErrAccountLocked
// before its password is checked.
func (t *tokenUseCase) Issue(
	ctx context.Context,
	input *authDomain.IssueTokenInput,
) (*authDomain.IssueTokenOutput, error) {
	key := userDomain.HashIdentity(userDomain.NormalizeEmail(input.Email))
	now := t.now()

	if t.attempts != nil {
		if until, locked := t.attempts.LockedUntil(key, now); locked {
			t.logger.WarnContext(ctx, "token issuance refused: account locked",
				slog.Time("locked_until", until),
			)
			return nil, authDomain.ErrAccountLocked
		}
	}

	user, err := t.users.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		if apperrors.Is(err, userDomain.ErrInvalidCredentials) {
			t.logger.WarnContext(ctx, "token issuance refused: invalid credentials")
			if t.attempts != nil && t.attempts.RecordFailure(key, now) {
				t.logger.WarnContext(ctx, "account locked after repeated failed logins")
			}
		}
		return nil, err
	}

	if t.attempts != nil {
		t.attempts.Reset(key)
	}

	principal := &authDomain.Principal{UserID: user.ID, Roles: user.Roles}
	token, expiresAt, err := t.tokenService.Issue(principal, now)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to sign token")
	}

	return &authDomain.IssueTokenOutput{Token: token, ExpiresAt: expiresAt}, nil
}
