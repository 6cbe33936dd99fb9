// Package usecase implements the treatment register workflow: drafting, review by the
// DPO, validation and archiving.
package usecase

import (
	"context"

	"github.com/google/uuid"

	authDomain "github.com/allisson/treatment-register/internal/auth/domain"
	outboxDomain "github.com/allisson/treatment-register/internal/outbox/domain"
	"github.com/allisson/treatment-register/internal/treatment/domain"
)

// TreatmentRepository defines treatment persistence operations used by the workflow.
type TreatmentRepository interface {
	Create(ctx context.Context, treatment *domain.Treatment) error
	Update(ctx context.Context, treatment *domain.Treatment) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Treatment, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Treatment, error)
	List(ctx context.Context, filter domain.ListFilter, offset, limit int) ([]*domain.Treatment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OutboxEventRepository stores workflow events in the same transaction as the state change.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// TreatmentInput holds the editable fields of a treatment.
type TreatmentInput struct {
	Name                  string
	Department            string
	ReferenceNumber       string
	ControllerName        string
	PostalAddress         string
	Phone                 string
	GDPRReferent          string
	Purpose               string
	OperationalReferent   string
	SubProcessor          *string
	SoftwareAdministrator string
	LegalBasis            string
	Hosting               string
	RetentionPeriod       string
}

// UseCase defines the treatment operations. Every operation is performed on behalf of
// an authenticated principal and enforces ownership and role rules.
type UseCase interface {
	// Create stores a new draft owned by the principal.
	Create(ctx context.Context, principal *authDomain.Principal, input TreatmentInput) (*domain.Treatment, error)

	// Update replaces the editable fields. Owners and administrators may update any
	// treatment that is not archived.
	Update(
		ctx context.Context,
		principal *authDomain.Principal,
		id uuid.UUID,
		input TreatmentInput,
	) (*domain.Treatment, error)

	// Get returns a treatment visible to the principal.
	Get(ctx context.Context, principal *authDomain.Principal, id uuid.UUID) (*domain.Treatment, error)

	// List returns the principal's treatments, or every treatment for DPOs and administrators.
	List(
		ctx context.Context,
		principal *authDomain.Principal,
		status *domain.Status,
		offset, limit int,
	) ([]*domain.Treatment, error)

	// Delete hard deletes a draft. Administrators only.
	Delete(ctx context.Context, principal *authDomain.Principal, id uuid.UUID) error

	// Submit sends a draft for review and notifies the DPOs.
	Submit(ctx context.Context, principal *authDomain.Principal, id uuid.UUID) (*domain.Treatment, error)

	// Validate approves a treatment under review. DPOs only.
	Validate(ctx context.Context, principal *authDomain.Principal, id uuid.UUID) (*domain.Treatment, error)

	// RequestChanges sends a treatment under review back to its owner with a comment. DPOs only.
	RequestChanges(
		ctx context.Context,
		principal *authDomain.Principal,
		id uuid.UUID,
		comment string,
	) (*domain.Treatment, error)

	// Archive retires a validated treatment. Administrators only.
	Archive(ctx context.Context, principal *authDomain.Principal, id uuid.UUID) (*domain.Treatment, error)
}
