package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"

	erasureDomain "github.com/allisson/treatment-register/internal/erasure/domain"
	"github.com/allisson/treatment-register/internal/erasure/service"
	apperrors "github.com/allisson/treatment-register/internal/errors"
	userDomain "github.com/allisson/treatment-register/internal/user/domain"
)

const verifyPageSize = 500

type deletionAuditUseCase struct {
	repo      DeletionAuditRepository
	signer    service.AuditSigner
	retention time.Duration
	now       Clock
	logger    *slog.Logger
}

// NewDeletionAuditUseCase creates the deletion audit log. A zero retention keeps
// records for DefaultRetentionYears. signer may be nil, in which case records are
// stored unsigned.
func NewDeletionAuditUseCase(
	repo DeletionAuditRepository,
	signer service.AuditSigner,
	retention time.Duration,
	now Clock,
	logger *slog.Logger,
) DeletionAuditUseCase {
	if now == nil {
		now = time.Now
	}
	return &deletionAuditUseCase{
		repo:      repo,
		signer:    signer,
		retention: retention,
		now:       now,
		logger:    logger,
	}
}

func (d *deletionAuditUseCase) retentionDeadline(performedAt time.Time) time.Time {
	if d.retention <= 0 {
		return performedAt.AddDate(erasureDomain.DefaultRetentionYears, 0, 0)
	}
	return performedAt.Add(d.retention)
}

// Append builds and stores a deletion audit record.
func (d *deletionAuditUseCase) Append(
	ctx context.Context,
	input AppendInput,
) (*erasureDomain.DeletionAudit, error) {
	// Storage keeps microseconds; truncating keeps signatures stable after a round trip.
	performedAt := d.now().UTC().Truncate(time.Microsecond)
	retentionUntil := d.retentionDeadline(performedAt)

	naturalID := userDomain.NormalizeEmail(input.SubjectNaturalID)
	identityHash := input.SubjectIdentityHash
	if identityHash == "" {
		identityHash = userDomain.HashIdentity(naturalID)
	}

	metadata := make(map[string]any, len(input.Metadata)+4)
	maps.Copy(metadata, input.Metadata)
	metadata["anonymized_subject_id"] = erasureDomain.AnonymizedSubjectID(input.SubjectID)
	metadata["email_domain"] = userDomain.EmailDomain(naturalID)
	metadata["roles"] = input.SubjectRoles
	metadata["deletion_timestamp"] = performedAt.Format(time.RFC3339)

	audit := &erasureDomain.DeletionAudit{
		ID:                  uuid.Must(uuid.NewV7()),
		SubjectIdentityHash: identityHash,
		AnonymizedSubjectID: erasureDomain.AnonymizedSubjectID(input.SubjectID),
		PerformedBy:         input.PerformedBy,
		Reason:              input.Reason,
		SourceIPAddress:     input.SourceIPAddress,
		PerformedAt:         performedAt,
		RetentionUntil:      &retentionUntil,
		Metadata:            metadata,
	}

	if d.signer != nil {
		signature, err := d.signer.Sign(audit)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", erasureDomain.ErrAuditWriteFailed, err)
		}
		audit.Signature = signature
	}

	if err := d.repo.Create(ctx, audit); err != nil {
		return nil, fmt.Errorf("%w: %w", erasureDomain.ErrAuditWriteFailed, err)
	}

	d.logger.InfoContext(ctx, "deletion audit record created",
		slog.String("audit_id", audit.ID.String()),
		slog.String("anonymized_subject_id", audit.AnonymizedSubjectID),
	)

	return audit, nil
}

// WasIdentityErased normalizes and hashes naturalID and checks for an existing record.
func (d *deletionAuditUseCase) WasIdentityErased(ctx context.Context, naturalID string) (bool, error) {
	identityHash := userDomain.HashIdentity(userDomain.NormalizeEmail(naturalID))
	exists, err := d.repo.ExistsByIdentityHash(ctx, identityHash)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check erased identity")
	}
	return exists, nil
}

// FindExpired returns records with retentionUntil before asOf.
func (d *deletionAuditUseCase) FindExpired(
	ctx context.Context,
	asOf time.Time,
) ([]*erasureDomain.DeletionAudit, error) {
	audits, err := d.repo.FindExpired(ctx, asOf)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find expired deletion audits")
	}
	return audits, nil
}

// PurgeExpired deletes records with retentionUntil before asOf.
func (d *deletionAuditUseCase) PurgeExpired(ctx context.Context, asOf time.Time) (int64, error) {
	count, err := d.repo.DeleteExpired(ctx, asOf, false)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to purge expired deletion audits")
	}
	return count, nil
}

// CountExpired returns how many records PurgeExpired would delete.
func (d *deletionAuditUseCase) CountExpired(ctx context.Context, asOf time.Time) (int64, error) {
	count, err := d.repo.DeleteExpired(ctx, asOf, true)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired deletion audits")
	}
	return count, nil
}

// Statistics aggregates records over an optional performedAt range.
func (d *deletionAuditUseCase) Statistics(
	ctx context.Context,
	from, to *time.Time,
) (*erasureDomain.Statistics, error) {
	stats, err := d.repo.Statistics(ctx, from, to)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to compute deletion audit statistics")
	}
	return stats, nil
}

func (d *deletionAuditUseCase) Get(ctx context.Context, id uuid.UUID) (*erasureDomain.DeletionAudit, error) {
	return d.repo.Get(ctx, id)
}

func (d *deletionAuditUseCase) List(
	ctx context.Context,
	offset, limit int,
	from, to *time.Time,
) ([]*erasureDomain.DeletionAudit, error) {
	audits, err := d.repo.List(ctx, offset, limit, from, to)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list deletion audits")
	}
	return audits, nil
}

func (d *deletionAuditUseCase) ListByPerformer(
	ctx context.Context,
	performedBy uuid.UUID,
	offset, limit int,
) ([]*erasureDomain.DeletionAudit, error) {
	audits, err := d.repo.ListByPerformer(ctx, performedBy, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list deletion audits by performer")
	}
	return audits, nil
}

// Verify checks the signature of every record performed within [from, to].
func (d *deletionAuditUseCase) Verify(ctx context.Context, from, to time.Time) (*VerificationReport, error) {
	if d.signer == nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "audit signing is not configured")
	}

	report := &VerificationReport{Invalid: []uuid.UUID{}}
	for offset := 0; ; offset += verifyPageSize {
		audits, err := d.repo.List(ctx, offset, verifyPageSize, &from, &to)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to list deletion audits")
		}

		for _, audit := range audits {
			report.Total++
			switch {
			case len(audit.Signature) == 0:
				report.Unsigned++
			case d.signer.Verify(audit) != nil:
				report.Invalid = append(report.Invalid, audit.ID)
			default:
				report.Valid++
			}
		}

		if len(audits) < verifyPageSize {
			break
		}
	}

	return report, nil
}
