package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	authDomain "github.com/allisson/treatment-register/internal/auth/domain"
	"github.com/allisson/treatment-register/internal/database"
	apperrors "github.com/allisson/treatment-register/internal/errors"
	outboxDomain "github.com/allisson/treatment-register/internal/outbox/domain"
	"github.com/allisson/treatment-register/internal/treatment/domain"
	userDomain "github.com/allisson/treatment-register/internal/user/domain"
	appValidation "github.com/allisson/treatment-register/internal/validation"
)

var legalBases = func() []any {
	values := make([]any, 0, len(domain.LegalBases))
	for _, b := range domain.LegalBases {
		values = append(values, b)
	}
	return values
}()

func validateTreatmentInput(input TreatmentInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.RuneLength(1, 255).Error("name must be at most 255 characters"),
		),
		validation.Field(&input.Department,
			validation.Required.Error("department is required"),
			validation.RuneLength(1, 100).Error("department must be at most 100 characters"),
		),
		validation.Field(&input.ReferenceNumber,
			validation.RuneLength(0, 100).Error("reference number must be at most 100 characters"),
		),
		validation.Field(&input.ControllerName, validation.Required.Error("controller name is required")),
		validation.Field(&input.PostalAddress, validation.Required.Error("postal address is required")),
		validation.Field(&input.Phone, validation.Required.Error("phone is required"), appValidation.Phone),
		validation.Field(&input.GDPRReferent, validation.Required.Error("GDPR referent is required")),
		validation.Field(&input.Purpose, validation.Required.Error("purpose is required")),
		validation.Field(&input.OperationalReferent, validation.Required.Error("operational referent is required")),
		validation.Field(&input.SubProcessor, validation.NilOrNotEmpty.Error("sub-processor must not be empty")),
		validation.Field(&input.SoftwareAdministrator,
			validation.Required.Error("software administrator is required"),
		),
		validation.Field(&input.LegalBasis,
			validation.Required.Error("legal basis is required"),
			validation.In(legalBases...).Error("legal basis is not a lawful basis of processing"),
		),
		validation.Field(&input.Hosting,
			validation.Required.Error("hosting is required"),
			validation.RuneLength(1, 100).Error("hosting must be at most 100 characters"),
		),
		validation.Field(&input.RetentionPeriod,
			validation.Required.Error("retention period is required"),
			validation.RuneLength(1, 100).Error("retention period must be at most 100 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

func applyInput(t *domain.Treatment, input TreatmentInput) {
	t.Name = input.Name
	t.Department = input.Department
	t.ReferenceNumber = input.ReferenceNumber
	t.ControllerName = input.ControllerName
	t.PostalAddress = input.PostalAddress
	t.Phone = input.Phone
	t.GDPRReferent = input.GDPRReferent
	t.Purpose = input.Purpose
	t.OperationalReferent = input.OperationalReferent
	t.SubProcessor = input.SubProcessor
	t.SoftwareAdministrator = input.SoftwareAdministrator
	t.LegalBasis = input.LegalBasis
	t.Hosting = input.Hosting
	t.RetentionPeriod = input.RetentionPeriod
}

func canView(principal *authDomain.Principal, t *domain.Treatment) bool {
	return principal.HasAnyRole(userDomain.RoleAdmin, userDomain.RoleDPO) || t.IsOwnedBy(principal.UserID)
}

func canManage(principal *authDomain.Principal, t *domain.Treatment) bool {
	return principal.IsAdmin() || t.IsOwnedBy(principal.UserID)
}

// TreatmentUseCase implements UseCase.
type TreatmentUseCase struct {
	txManager  database.TxManager
	repo       TreatmentRepository
	outboxRepo OutboxEventRepository
	logger     *slog.Logger
}

// NewTreatmentUseCase creates a new TreatmentUseCase.
func NewTreatmentUseCase(
	txManager database.TxManager,
	repo TreatmentRepository,
	outboxRepo OutboxEventRepository,
	logger *slog.Logger,
) *TreatmentUseCase {
	return &TreatmentUseCase{
		txManager:  txManager,
		repo:       repo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Create stores a new draft owned by the principal.
func (u *TreatmentUseCase) Create(
	ctx context.Context,
	principal *authDomain.Principal,
	input TreatmentInput,
) (*domain.Treatment, error) {
	if err := validateTreatmentInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	owner := principal.UserID
	treatment := &domain.Treatment{
		ID:        uuid.Must(uuid.NewV7()),
		Status:    domain.StatusDraft,
		CreatedBy: &owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyInput(treatment, input)

	if err := u.repo.Create(ctx, treatment); err != nil {
		return nil, err
	}

	u.logger.InfoContext(ctx, "treatment created",
		slog.String("treatment_id", treatment.ID.String()),
		slog.String("user_id", principal.UserID.String()),
	)
	return treatment, nil
}

// Update replaces the editable fields of a treatment that is not archived.
func (u *TreatmentUseCase) Update(
	ctx context.Context,
	principal *authDomain.Principal,
	id uuid.UUID,
	input TreatmentInput,
) (*domain.Treatment, error) {
	if err := validateTreatmentInput(input); err != nil {
		return nil, err
	}

	var treatment *domain.Treatment
	err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if treatment, err = u.repo.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if !canManage(principal, treatment) {
			return domain.ErrNotTreatmentOwner
		}
		if !treatment.CanEdit() {
			return domain.ErrTreatmentArchived
		}

		applyInput(treatment, input)
		treatment.UpdatedAt = time.Now().UTC()
		return u.repo.Update(ctx, treatment)
	})
	if err != nil {
		return nil, err
	}
	return treatment, nil
}

// Get returns a treatment visible to the principal.
func (u *TreatmentUseCase) Get(
	ctx context.Context,
	principal *authDomain.Principal,
	id uuid.UUID,
) (*domain.Treatment, error) {
	treatment, err := u.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(principal, treatment) {
		return nil, domain.ErrNotTreatmentOwner
	}
	return treatment, nil
}

// List returns the principal's treatments, or every treatment for DPOs and administrators.
func (u *TreatmentUseCase) List(
	ctx context.Context,
	principal *authDomain.Principal,
	status *domain.Status,
	offset, limit int,
) ([]*domain.Treatment, error) {
	if status != nil && !status.Valid() {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown status %q", *status)
	}

	filter := domain.ListFilter{Status: status}
	if !principal.HasAnyRole(userDomain.RoleAdmin, userDomain.RoleDPO) {
		owner := principal.UserID
		filter.OwnerID = &owner
	}
	return u.repo.List(ctx, filter, offset, limit)
}

// Delete hard deletes a draft treatment.
func (u *TreatmentUseCase) Delete(ctx context.Context, principal *authDomain.Principal, id uuid.UUID) error {
	if !principal.IsAdmin() {
		return domain.ErrReviewerRoleRequired
	}

	return u.txManager.WithTx(ctx, func(ctx context.Context) error {
		treatment, err := u.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !treatment.CanDelete() {
			return domain.ErrTreatmentNotDraft
		}
		if err := u.repo.Delete(ctx, id); err != nil {
			return err
		}

		u.logger.InfoContext(ctx, "treatment deleted",
			slog.String("treatment_id", id.String()),
			slog.String("user_id", principal.UserID.String()),
		)
		return nil
	})
}

// Submit sends a draft for review.
func (u *TreatmentUseCase) Submit(
	ctx context.Context,
	principal *authDomain.Principal,
	id uuid.UUID,
) (*domain.Treatment, error) {
	return u.transition(ctx, principal, id, outboxDomain.EventTreatmentSubmitted, nil,
		func(t *domain.Treatment, now time.Time) error {
			if !canManage(principal, t) {
				return domain.ErrNotTreatmentOwner
			}
			return t.Submit(now)
		},
	)
}

// Validate approves a treatment under review.
func (u *TreatmentUseCase) Validate(
	ctx context.Context,
	principal *authDomain.Principal,
	id uuid.UUID,
) (*domain.Treatment, error) {
	if !principal.IsDPO() {
		return nil, domain.ErrReviewerRoleRequired
	}
	return u.transition(ctx, principal, id, outboxDomain.EventTreatmentValidated, nil,
		func(t *domain.Treatment, now time.Time) error {
			return t.Validate(now)
		},
	)
}

// RequestChanges sends a treatment under review back to its owner.
func (u *TreatmentUseCase) RequestChanges(
	ctx context.Context,
	principal *authDomain.Principal,
	id uuid.UUID,
	comment string,
) (*domain.Treatment, error) {
	if !principal.IsDPO() {
		return nil, domain.ErrReviewerRoleRequired
	}
	if err := validation.Validate(comment, appValidation.ReviewComment...); err != nil {
		return nil, appValidation.WrapValidationError(err)
	}
	return u.transition(ctx, principal, id, outboxDomain.EventTreatmentChangesRequested, &comment,
		func(t *domain.Treatment, now time.Time) error {
			return t.RequestChanges(comment, now)
		},
	)
}

// Archive retires a validated treatment.
func (u *TreatmentUseCase) Archive(
	ctx context.Context,
	principal *authDomain.Principal,
	id uuid.UUID,
) (*domain.Treatment, error) {
	if !principal.IsAdmin() {
		return nil, domain.ErrReviewerRoleRequired
	}
	return u.transition(ctx, principal, id, "", nil,
		func(t *domain.Treatment, now time.Time) error {
			return t.Archive(now)
		},
	)
}

// transition locks the treatment, applies change and stores the result together with
// an outbox event of eventType. No event is written when eventType is empty.
func (u *TreatmentUseCase) transition(
	ctx context.Context,
	principal *authDomain.Principal,
	id uuid.UUID,
	eventType string,
	comment *string,
	change func(t *domain.Treatment, now time.Time) error,
) (*domain.Treatment, error) {
	var treatment *domain.Treatment
	err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if treatment, err = u.repo.GetForUpdate(ctx, id); err != nil {
			return err
		}

		from := treatment.Status
		now := time.Now().UTC()
		if err := change(treatment, now); err != nil {
			return err
		}
		if err := u.repo.Update(ctx, treatment); err != nil {
			return err
		}

		u.logger.InfoContext(ctx, "treatment status changed",
			slog.String("treatment_id", treatment.ID.String()),
			slog.String("from", string(from)),
			slog.String("to", string(treatment.Status)),
			slog.String("user_id", principal.UserID.String()),
		)

		if eventType == "" {
			return nil
		}
		event, err := outboxDomain.NewOutboxEvent(eventType, outboxDomain.TreatmentEventPayload{
			TreatmentID:   treatment.ID,
			TreatmentName: treatment.Name,
			OwnerID:       treatment.CreatedBy,
			ActorID:       principal.UserID,
			Comment:       comment,
		}, now)
		if err != nil {
			return apperrors.Wrap(err, "failed to build treatment event")
		}
		return u.outboxRepo.Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}
	return treatment, nil
}
