// Package usecase implements GDPR erasure: the deletion audit log, the user erasure
// orchestrator and the retention purge job.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	erasureDomain "github.com/allisson/treatment-register/internal/erasure/domain"
	outboxDomain "github.com/allisson/treatment-register/internal/outbox/domain"
	userDomain "github.com/allisson/treatment-register/internal/user/domain"
)

// Clock returns the current time. Injected so retention expiry can be tested.
type Clock func() time.Time

// DeletionAuditRepository defines persistence operations for deletion audit records.
// Implementations must join the transaction carried by the context.
type DeletionAuditRepository interface {
	// Create stores a new record.
	Create(ctx context.Context, audit *erasureDomain.DeletionAudit) error

	// Get retrieves a record by id. Returns ErrDeletionAuditNotFound if absent.
	Get(ctx context.Context, id uuid.UUID) (*erasureDomain.DeletionAudit, error)

	// ExistsByIdentityHash reports whether a record with the identity hash exists.
	ExistsByIdentityHash(ctx context.Context, identityHash string) (bool, error)

	// FindExpired returns records whose retention deadline is before asOf.
	FindExpired(ctx context.Context, asOf time.Time) ([]*erasureDomain.DeletionAudit, error)

	// DeleteExpired deletes records whose retention deadline is before asOf.
	// When dryRun is true it only counts them.
	DeleteExpired(ctx context.Context, asOf time.Time, dryRun bool) (int64, error)

	// Statistics aggregates records whose performedAt is within the optional range.
	Statistics(ctx context.Context, from, to *time.Time) (*erasureDomain.Statistics, error)

	// List returns records ordered by performedAt descending within the optional range.
	List(
		ctx context.Context,
		offset, limit int,
		from, to *time.Time,
	) ([]*erasureDomain.DeletionAudit, error)

	// ListByPerformer returns records written by one administrator, newest first.
	ListByPerformer(
		ctx context.Context,
		performedBy uuid.UUID,
		offset, limit int,
	) ([]*erasureDomain.DeletionAudit, error)
}

// UserRepository defines the user operations needed by the erasure workflow.
type UserRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*userDomain.User, error)

	// GetForUpdate loads the user and locks its row until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*userDomain.User, error)

	CountByRole(ctx context.Context, role userDomain.Role) (int64, error)

	// Delete hard deletes the user row.
	Delete(ctx context.Context, id uuid.UUID) error
}

// OutboxEventRepository stores events published in the erasure transaction.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// AppendInput contains the data of a new deletion audit record.
//
// SubjectIdentityHash, when set, is stored as is. Otherwise the hash is computed from
// the normalized SubjectNaturalID.
type AppendInput struct {
	SubjectID           uuid.UUID
	SubjectNaturalID    string
	SubjectIdentityHash string
	SubjectRoles        []string
	PerformedBy         *uuid.UUID
	Reason              *string
	SourceIPAddress     *string
	Metadata            map[string]any
}

// VerificationReport summarises a signature verification run.
type VerificationReport struct {
	Total    int         `json:"total"`
	Valid    int         `json:"valid"`
	Unsigned int         `json:"unsigned"`
	Invalid  []uuid.UUID `json:"invalid"`
}

// DeletionAuditUseCase is the append-only deletion audit log.
type DeletionAuditUseCase interface {
	// Append writes a new record. It must run inside the erasure transaction.
	// Persistence errors are returned wrapped with ErrAuditWriteFailed.
	Append(ctx context.Context, input AppendInput) (*erasureDomain.DeletionAudit, error)

	// WasIdentityErased reports whether naturalID belongs to an erased identity.
	// naturalID is normalized before hashing.
	WasIdentityErased(ctx context.Context, naturalID string) (bool, error)

	// FindExpired returns records with retentionUntil before asOf.
	FindExpired(ctx context.Context, asOf time.Time) ([]*erasureDomain.DeletionAudit, error)

	// PurgeExpired deletes records with retentionUntil before asOf and returns the count.
	PurgeExpired(ctx context.Context, asOf time.Time) (int64, error)

	// CountExpired returns how many records PurgeExpired would delete.
	CountExpired(ctx context.Context, asOf time.Time) (int64, error)

	// Statistics aggregates records over an optional performedAt range.
	Statistics(ctx context.Context, from, to *time.Time) (*erasureDomain.Statistics, error)

	Get(ctx context.Context, id uuid.UUID) (*erasureDomain.DeletionAudit, error)

	List(
		ctx context.Context,
		offset, limit int,
		from, to *time.Time,
	) ([]*erasureDomain.DeletionAudit, error)

	ListByPerformer(
		ctx context.Context,
		performedBy uuid.UUID,
		offset, limit int,
	) ([]*erasureDomain.DeletionAudit, error)

	// Verify checks the signature of every record performed within [from, to].
	Verify(ctx context.Context, from, to time.Time) (*VerificationReport, error)
}

// EraseInput identifies an erasure request.
type EraseInput struct {
	SubjectID       uuid.UUID
	ActorID         uuid.UUID
	Reason          string
	SourceIPAddress string
}

// ErasureUseCase performs GDPR erasure of a user.
type ErasureUseCase interface {
	// CanErase checks eligibility without side effects.
	CanErase(ctx context.Context, subjectID, actorID uuid.UUID) (*erasureDomain.Eligibility, error)

	// Preview returns what an erasure would affect without mutating anything.
	Preview(ctx context.Context, subjectID, actorID uuid.UUID) (*erasureDomain.PreviewResult, error)

	// Erase deletes the user, anonymizes or deletes its dependent records and writes the
	// deletion audit record in one transaction. Any failure after the transaction
	// starts rolls everything back and returns an *ErasureError.
	Erase(ctx context.Context, input EraseInput) (*erasureDomain.ErasureResult, error)
}

// RetentionPurgeUseCase enforces the retention window of the deletion audit log.
type RetentionPurgeUseCase interface {
	// Run purges records expired at now and returns the count.
	Run(ctx context.Context, now time.Time) (int64, error)

	// DryRun returns how many records Run would purge at now.
	DryRun(ctx context.Context, now time.Time) (int64, error)

	// Start runs the purge every interval until ctx is cancelled.
	Start(ctx context.Context) error
}
