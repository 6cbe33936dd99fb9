package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	erasureUseCase "github.com/allisson/treatment-register/internal/erasure/usecase"
)

// PurgeResult is the output of RunPurgeDeletionAudits.
type PurgeResult struct {
	Count  int64     `json:"count"`
	AsOf   time.Time `json:"as_of"`
	DryRun bool      `json:"dry_run"`
}

// RunPurgeDeletionAudits deletes deletion audit records whose retention deadline has
// passed. With dryRun set it only reports how many records would be deleted.
func RunPurgeDeletionAudits(
	ctx context.Context,
	purgeUseCase erasureUseCase.RetentionPurgeUseCase,
	logger *slog.Logger,
	writer io.Writer,
	dryRun bool,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	result := PurgeResult{AsOf: time.Now().UTC(), DryRun: dryRun}

	var err error
	if dryRun {
		result.Count, err = purgeUseCase.DryRun(ctx, result.AsOf)
	} else {
		result.Count, err = purgeUseCase.Run(ctx, result.AsOf)
	}
	if err != nil {
		return fmt.Errorf("failed to purge deletion audits: %w", err)
	}

	logger.Info("deletion audit purge finished",
		slog.Int64("count", result.Count),
		slog.Bool("dry_run", dryRun),
	)

	if format == "json" {
		return writeJSON(writer, result)
	}

	if dryRun {
		_, _ = fmt.Fprintf(writer, "Dry run: %d expired deletion audit record(s) would be deleted\n", result.Count)
		return nil
	}
	_, _ = fmt.Fprintf(writer, "Deleted %d expired deletion audit record(s)\n", result.Count)
	return nil
}
