package usecase

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/allisson/treatment-register/internal/database"
	apperrors "github.com/allisson/treatment-register/internal/errors"
	"github.com/allisson/treatment-register/internal/user/domain"
	appValidation "github.com/allisson/treatment-register/internal/validation"
)

// UserUseCase implements UseCase.
type UserUseCase struct {
	txManager      database.TxManager
	userRepo       UserRepository
	erasureChecker ErasedIdentityChecker
	hasher         PasswordHasher
	logger         *slog.Logger
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	erasureChecker ErasedIdentityChecker,
	hasher PasswordHasher,
	logger *slog.Logger,
) *UserUseCase {
	return &UserUseCase{
		txManager:      txManager,
		userRepo:       userRepo,
		erasureChecker: erasureChecker,
		hasher:         hasher,
		logger:         logger,
	}
}

var validRole = validation.By(func(value any) error {
	role, _ := value.(domain.Role)
	if !role.Valid() {
		return validation.NewError("validation_role", "must be one of ROLE_USER, ROLE_ADMIN, ROLE_DPO")
	}
	return nil
})

var (
	emailRules = []validation.Rule{
		validation.Required.Error("email is required"),
		appValidation.NotBlank,
		appValidation.Email,
		validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
	}
	passwordRules = []validation.Rule{
		validation.Required.Error("password is required"),
		validation.Length(12, 128).Error("password must be between 12 and 128 characters"),
		appValidation.StrongPassword,
	}
)

func validateRegisterInput(input RegisterInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Email, emailRules...),
		validation.Field(&input.Password, passwordRules...),
		validation.Field(&input.Roles, validation.Each(validRole)),
	)
	return appValidation.WrapValidationError(err)
}

// validateUpdateInput validates the fields present in input.
func validateUpdateInput(input UpdateInput) error {
	errs := validation.Errors{}
	if input.Email != nil {
		errs["email"] = validation.Validate(*input.Email, emailRules...)
	}
	if input.Password != nil {
		errs["password"] = validation.Validate(*input.Password, passwordRules...)
	}
	errs["roles"] = validation.Validate(input.Roles, validation.Each(validRole))
	return appValidation.WrapValidationError(errs.Filter())
}

// Register creates an account after checking the email is neither in use nor erased.
func (u *UserUseCase) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.Email = domain.NormalizeEmail(input.Email)
	if err := validateRegisterInput(input); err != nil {
		return nil, err
	}

	erased, err := u.erasureChecker.WasIdentityErased(ctx, input.Email)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to check erased identities")
	}
	if erased {
		u.logger.WarnContext(ctx, "registration refused for erased identity")
		return nil, domain.ErrIdentityErased
	}

	emailHash := domain.HashIdentity(input.Email)
	if _, err := u.userRepo.GetByEmailHash(ctx, emailHash); err == nil {
		return nil, domain.ErrUserAlreadyExists
	} else if !apperrors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := u.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	roles := input.Roles
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleUser}
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:        uuid.Must(uuid.NewV7()),
		Email:     input.Email,
		EmailHash: emailHash,
		Password:  hashed,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	u.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID.String()),
		slog.Any("roles", user.Roles),
	)
	return user, nil
}

// Update applies input to the account inside a transaction that holds the user row lock.
func (u *UserUseCase) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*domain.User, error) {
	if input.Email != nil {
		normalized := domain.NormalizeEmail(*input.Email)
		input.Email = &normalized
	}
	if err := validateUpdateInput(input); err != nil {
		return nil, err
	}

	var user *domain.User
	emailChanged := false
	err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if user, err = u.userRepo.GetForUpdate(ctx, id); err != nil {
			return err
		}

		if input.Email != nil && domain.HashIdentity(*input.Email) != user.EmailHash {
			if err := u.changeEmail(ctx, user, *input.Email); err != nil {
				return err
			}
			emailChanged = true
		}

		if input.Password != nil {
			hashed, err := u.hasher.Hash(*input.Password)
			if err != nil {
				return err
			}
			user.Password = hashed
		}

		if input.Roles != nil {
			if err := u.changeRoles(ctx, user, input.Roles); err != nil {
				return err
			}
		}

		user.UpdatedAt = time.Now().UTC()
		return u.userRepo.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	u.logger.InfoContext(ctx, "user updated",
		slog.String("user_id", user.ID.String()),
		slog.Bool("email_changed", emailChanged),
		slog.Bool("password_changed", input.Password != nil),
		slog.Any("roles", user.Roles),
	)
	return user, nil
}

// changeEmail moves user to email after checking it is neither erased nor in use.
func (u *UserUseCase) changeEmail(ctx context.Context, user *domain.User, email string) error {
	erased, err := u.erasureChecker.WasIdentityErased(ctx, email)
	if err != nil {
		return apperrors.Wrap(err, "failed to check erased identities")
	}
	if erased {
		return domain.ErrIdentityErased
	}

	emailHash := domain.HashIdentity(email)
	existing, err := u.userRepo.GetByEmailHash(ctx, emailHash)
	switch {
	case err == nil && existing.ID != user.ID:
		return domain.ErrUserAlreadyExists
	case err != nil && !apperrors.Is(err, domain.ErrUserNotFound):
		return err
	}

	user.Email = email
	user.EmailHash = emailHash
	return nil
}

// changeRoles replaces the roles of user. Removing ROLE_ADMIN from the only
// administrator is refused.
func (u *UserUseCase) changeRoles(ctx context.Context, user *domain.User, roles []domain.Role) error {
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleUser}
	}

	if user.IsAdmin() && !slices.Contains(roles, domain.RoleAdmin) {
		admins, err := u.userRepo.CountByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return apperrors.Wrap(err, "failed to count administrators")
		}
		if admins <= 1 {
			return domain.ErrLastAdminDemotion
		}
	}

	user.Roles = roles
	return nil
}

// Get retrieves a user by ID.
func (u *UserUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return u.userRepo.Get(ctx, id)
}

// List returns users newest first.
func (u *UserUseCase) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	return u.userRepo.List(ctx, offset, limit)
}

// Authenticate verifies the credentials of an account.
func (u *UserUseCase) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := u.userRepo.GetByEmailHash(ctx, domain.HashIdentity(domain.NormalizeEmail(email)))
	if err != nil {
		if apperrors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !u.hasher.Compare(password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}
