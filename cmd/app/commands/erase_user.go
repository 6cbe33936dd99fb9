package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	erasureUseCase "github.com/allisson/treatment-register/internal/erasure/usecase"
)

// RunPreviewErasure prints what erasing subjectID would affect without changing anything.
func RunPreviewErasure(
	ctx context.Context,
	erasure erasureUseCase.ErasureUseCase,
	logger *slog.Logger,
	writer io.Writer,
	subjectID, actorID, format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	subject, actor, err := parseErasureIDs(subjectID, actorID)
	if err != nil {
		return err
	}

	preview, err := erasure.Preview(ctx, subject, actor)
	if err != nil {
		return fmt.Errorf("failed to preview erasure: %w", err)
	}

	logger.Info("erasure preview generated", slog.String("subject_id", subject.String()))

	if format == "json" {
		return writeJSON(writer, preview)
	}

	_, _ = fmt.Fprintf(writer, "Subject:      %s\n", preview.SubjectID)
	_, _ = fmt.Fprintf(writer, "Email:        %s\n", preview.Email)
	_, _ = fmt.Fprintf(writer, "Roles:        %s\n", strings.Join(preview.Roles, ", "))
	writeCounts(writer, "To anonymize:", preview.ToAnonymize)
	writeCounts(writer, "To delete:", preview.ToDelete)
	if preview.CanErase {
		_, _ = fmt.Fprintf(writer, "Can erase:    yes\n")
	} else {
		_, _ = fmt.Fprintf(writer, "Can erase:    no (%s)\n", preview.BlockedReason)
	}
	_, _ = fmt.Fprintf(writer, "\n%s\n", preview.Warning)
	return nil
}

// RunEraseUser permanently erases subjectID on behalf of actorID. The CLI has no
// client address, so the audit record is written without one.
func RunEraseUser(
	ctx context.Context,
	erasure erasureUseCase.ErasureUseCase,
	logger *slog.Logger,
	writer io.Writer,
	subjectID, actorID, reason, format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	subject, actor, err := parseErasureIDs(subjectID, actorID)
	if err != nil {
		return err
	}

	result, err := erasure.Erase(ctx, erasureUseCase.EraseInput{
		SubjectID: subject,
		ActorID:   actor,
		Reason:    reason,
	})
	if err != nil {
		return fmt.Errorf("failed to erase user: %w", err)
	}

	logger.Info("user erased from cli",
		slog.String("anonymized_subject_id", result.AnonymizedSubjectID),
		slog.String("audit_id", result.AuditID.String()),
	)

	if format == "json" {
		return writeJSON(writer, result)
	}

	_, _ = fmt.Fprintf(writer, "User erased\n\n")
	_, _ = fmt.Fprintf(writer, "Anonymized ID: %s\n", result.AnonymizedSubjectID)
	_, _ = fmt.Fprintf(writer, "Audit ID:      %s\n", result.AuditID)
	_, _ = fmt.Fprintf(writer, "Reason:        %s\n", result.Reason)
	writeCounts(writer, "Anonymized:", result.Anonymized)
	writeCounts(writer, "Deleted:", result.Deleted)
	return nil
}

func parseErasureIDs(subjectID, actorID string) (uuid.UUID, uuid.UUID, error) {
	subject, err := uuid.Parse(subjectID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid user id: %w", err)
	}
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid actor id: %w", err)
	}
	return subject, actor, nil
}

func writeCounts(writer io.Writer, label string, counts map[string]int64) {
	_, _ = fmt.Fprintln(writer, label)
	if len(counts) == 0 {
		_, _ = fmt.Fprintln(writer, "  (none)")
		return
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(writer, "  %s: %d\n", name, counts[name])
	}
}
