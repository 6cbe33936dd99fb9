package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/treatment-register/internal/crypto/domain"
	"github.com/allisson/treatment-register/internal/database"
	erasureDomain "github.com/allisson/treatment-register/internal/erasure/domain"
	apperrors "github.com/allisson/treatment-register/internal/errors"
	outboxDomain "github.com/allisson/treatment-register/internal/outbox/domain"
	userDomain "github.com/allisson/treatment-register/internal/user/domain"
)

// Dependent describes one type of record owned by a user and what erasure does to it.
// Exactly one of Anonymize or Delete is used, chosen by Policy.
type Dependent struct {
	Name   string
	Policy erasureDomain.DependentPolicy
	Count  func(ctx context.Context, ownerID uuid.UUID) (int64, error)
	// Anonymize clears the owner reference and stores a placeholder containing
	// anonymizedSubjectID. Required for PolicyAnonymize.
	Anonymize func(ctx context.Context, ownerID uuid.UUID, anonymizedSubjectID string) (int64, error)
	// Delete removes every record owned by ownerID. Required for PolicyCascade.
	Delete func(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

func (d Dependent) validate() error {
	if d.Name == "" || d.Count == nil {
		return fmt.Errorf("dependent %q: name and count are required", d.Name)
	}
	switch d.Policy {
	case erasureDomain.PolicyAnonymize:
		if d.Anonymize == nil || d.Delete != nil {
			return fmt.Errorf("dependent %q: anonymize policy requires only Anonymize", d.Name)
		}
	case erasureDomain.PolicyCascade:
		if d.Delete == nil || d.Anonymize != nil {
			return fmt.Errorf("dependent %q: cascade policy requires only Delete", d.Name)
		}
	default:
		return fmt.Errorf("dependent %q: unknown policy %q", d.Name, d.Policy)
	}
	return nil
}

type erasureUseCase struct {
	txManager    database.TxManager
	userRepo     UserRepository
	auditUseCase DeletionAuditUseCase
	outboxRepo   OutboxEventRepository
	dependents   []Dependent
	now          Clock
	logger       *slog.Logger
}

// NewErasureUseCase creates the erasure orchestrator. Dependents are processed in the
// given order: every anonymize dependent first, then every cascade dependent.
func NewErasureUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	auditUseCase DeletionAuditUseCase,
	outboxRepo OutboxEventRepository,
	dependents []Dependent,
	now Clock,
	logger *slog.Logger,
) (ErasureUseCase, error) {
	for _, d := range dependents {
		if err := d.validate(); err != nil {
			return nil, err
		}
	}
	if now == nil {
		now = time.Now
	}
	return &erasureUseCase{
		txManager:    txManager,
		userRepo:     userRepo,
		auditUseCase: auditUseCase,
		outboxRepo:   outboxRepo,
		dependents:   dependents,
		now:          now,
		logger:       logger,
	}, nil
}

// eligibility applies the erasure rules to a loaded subject.
func (e *erasureUseCase) eligibility(
	ctx context.Context,
	subject *userDomain.User,
	actorID uuid.UUID,
) (*erasureDomain.Eligibility, error) {
	if subject.ID == actorID {
		return &erasureDomain.Eligibility{
			Reason: erasureDomain.ReasonSelfErasure,
			Err:    erasureDomain.ErrSelfErasureDenied,
		}, nil
	}

	if subject.IsAdmin() {
		admins, err := e.userRepo.CountByRole(ctx, userDomain.RoleAdmin)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to count administrators")
		}
		if admins <= 1 {
			return &erasureDomain.Eligibility{
				Reason: erasureDomain.ReasonLastAdmin,
				Err:    erasureDomain.ErrLastAdminDenied,
			}, nil
		}
	}

	return &erasureDomain.Eligibility{Allowed: true}, nil
}

// CanErase loads the subject and checks eligibility without side effects.
func (e *erasureUseCase) CanErase(
	ctx context.Context,
	subjectID, actorID uuid.UUID,
) (*erasureDomain.Eligibility, error) {
	subject, err := e.userRepo.Get(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return e.eligibility(ctx, subject, actorID)
}

// snapshot counts the dependent records of the subject per dependent name.
func (e *erasureUseCase) snapshot(
	ctx context.Context,
	subjectID uuid.UUID,
) (toAnonymize, toDelete map[string]int64, err error) {
	toAnonymize = make(map[string]int64)
	toDelete = make(map[string]int64)

	for _, d := range e.dependents {
		count, err := d.Count(ctx, subjectID)
		if err != nil {
			return nil, nil, apperrors.Wrapf(err, "failed to count %s", d.Name)
		}
		if d.Policy == erasureDomain.PolicyAnonymize {
			toAnonymize[d.Name] = count
		} else {
			toDelete[d.Name] = count
		}
	}
	return toAnonymize, toDelete, nil
}

// Preview returns the read-only projection of an erasure.
func (e *erasureUseCase) Preview(
	ctx context.Context,
	subjectID, actorID uuid.UUID,
) (*erasureDomain.PreviewResult, error) {
	subject, err := e.userRepo.Get(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	eligibility, err := e.eligibility(ctx, subject, actorID)
	if err != nil {
		return nil, err
	}

	toAnonymize, toDelete, err := e.snapshot(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	return &erasureDomain.PreviewResult{
		SubjectID:     subject.ID,
		Email:         subject.Email,
		Roles:         roleNames(subject.Roles),
		ToAnonymize:   toAnonymize,
		ToDelete:      toDelete,
		CanErase:      eligibility.Allowed,
		BlockedReason: eligibility.Reason,
		Warning:       erasureDomain.PreviewWarning,
	}, nil
}

// Erase performs the erasure. Eligibility failures are returned before any
// transaction starts. Every later failure rolls back and returns an *ErasureError.
func (e *erasureUseCase) Erase(
	ctx context.Context,
	input EraseInput,
) (*erasureDomain.ErasureResult, error) {
	subject, err := e.userRepo.Get(ctx, input.SubjectID)
	if err != nil {
		return nil, err
	}

	eligibility, err := e.eligibility(ctx, subject, input.ActorID)
	if err != nil {
		return nil, err
	}
	if !eligibility.Allowed {
		return nil, eligibility.Err
	}

	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = erasureDomain.DefaultReason
	}

	toAnonymize, toDelete, err := e.snapshot(ctx, input.SubjectID)
	if err != nil {
		return nil, e.fail(ctx, input, erasureDomain.StepSnapshotCounts, err)
	}

	result := &erasureDomain.ErasureResult{
		SubjectID:           input.SubjectID,
		AnonymizedSubjectID: erasureDomain.AnonymizedSubjectID(input.SubjectID),
		Anonymized:          make(map[string]int64),
		Deleted:             make(map[string]int64),
		Reason:              reason,
		PerformedBy:         input.ActorID,
	}

	step := erasureDomain.StepLockSubject
	err = e.txManager.WithTx(ctx, func(ctx context.Context) error {
		// The row lock serializes concurrent erasures of the same subject: the loser
		// blocks here and then sees ErrUserNotFound.
		locked, err := e.userRepo.GetForUpdate(ctx, input.SubjectID)
		if err != nil {
			return err
		}

		eligibility, err := e.eligibility(ctx, locked, input.ActorID)
		if err != nil {
			return err
		}
		if !eligibility.Allowed {
			return eligibility.Err
		}

		// EmailHash was computed from the plaintext at registration and stays valid even
		// when the stored email cannot be decrypted.
		naturalID := locked.Email
		if cryptoDomain.HasMarkers(naturalID) {
			e.logger.WarnContext(ctx, "subject email is still encrypted, auditing stored identity hash",
				slog.String("subject_id", locked.ID.String()),
			)
			naturalID = ""
		}

		step = erasureDomain.StepAuditWrite
		audit, err := e.auditUseCase.Append(ctx, AppendInput{
			SubjectID:           locked.ID,
			SubjectNaturalID:    naturalID,
			SubjectIdentityHash: locked.EmailHash,
			SubjectRoles:        roleNames(locked.Roles),
			PerformedBy:         &input.ActorID,
			Reason:              &reason,
			SourceIPAddress:     optionalString(input.SourceIPAddress),
			Metadata:            snapshotMetadata(toAnonymize, toDelete),
		})
		if err != nil {
			return err
		}
		result.AuditID = audit.ID

		step = erasureDomain.StepAnonymize
		for _, d := range e.dependents {
			if d.Policy != erasureDomain.PolicyAnonymize {
				continue
			}
			count, err := d.Anonymize(ctx, locked.ID, audit.AnonymizedSubjectID)
			if err != nil {
				return apperrors.Wrapf(err, "failed to anonymize %s", d.Name)
			}
			result.Anonymized[d.Name] = count
		}

		step = erasureDomain.StepCascadeDelete
		for _, d := range e.dependents {
			if d.Policy != erasureDomain.PolicyCascade {
				continue
			}
			count, err := d.Delete(ctx, locked.ID)
			if err != nil {
				return apperrors.Wrapf(err, "failed to delete %s", d.Name)
			}
			result.Deleted[d.Name] = count
		}

		step = erasureDomain.StepDeleteSubject
		if err := e.userRepo.Delete(ctx, locked.ID); err != nil {
			return err
		}

		step = erasureDomain.StepOutboxEvent
		if err := e.publishErased(ctx, result); err != nil {
			return err
		}

		step = erasureDomain.StepCommit
		return nil
	})
	if err != nil {
		return nil, e.fail(ctx, input, step, err)
	}

	result.CompletedAt = e.now().UTC()

	e.logger.InfoContext(ctx, "user erased",
		slog.String("anonymized_subject_id", result.AnonymizedSubjectID),
		slog.String("performed_by", input.ActorID.String()),
		slog.String("audit_id", result.AuditID.String()),
		slog.Any("anonymized", result.Anonymized),
		slog.Any("deleted", result.Deleted),
	)

	return result, nil
}

func (e *erasureUseCase) publishErased(ctx context.Context, result *erasureDomain.ErasureResult) error {
	event, err := outboxDomain.NewOutboxEvent(outboxDomain.EventUserErased, outboxDomain.UserErasedPayload{
		AnonymizedSubjectID: result.AnonymizedSubjectID,
		AuditID:             result.AuditID,
		Anonymized:          result.Anonymized,
		Deleted:             result.Deleted,
	}, e.now().UTC())
	if err != nil {
		return err
	}
	return e.outboxRepo.Create(ctx, event)
}

// fail logs a failed erasure with its context and builds the returned error.
func (e *erasureUseCase) fail(ctx context.Context, input EraseInput, step string, cause error) error {
	e.logger.ErrorContext(ctx, "user erasure failed",
		slog.String("subject_id", input.SubjectID.String()),
		slog.String("actor_id", input.ActorID.String()),
		slog.String("step", step),
		slog.Any("error", cause),
	)
	return &erasureDomain.ErasureError{SubjectID: input.SubjectID, Step: step, Cause: cause}
}

func snapshotMetadata(toAnonymize, toDelete map[string]int64) map[string]any {
	metadata := make(map[string]any, len(toAnonymize)+len(toDelete))
	for name, count := range toAnonymize {
		metadata[name+"_count"] = count
	}
	for name, count := range toDelete {
		metadata[name+"_count"] = count
	}
	return metadata
}

func roleNames(roles []userDomain.Role) []string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return names
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
