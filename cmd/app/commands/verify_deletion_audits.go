package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	erasureUseCase "github.com/allisson/treatment-register/internal/erasure/usecase"
)

// RunVerifyDeletionAudits checks the HMAC signature of every deletion audit record
// performed between startDate and endDate. Dates accept "YYYY-MM-DD" or
// "YYYY-MM-DD HH:MM:SS". Returns an error when any signature does not match, so
// tampering fails the command.
func RunVerifyDeletionAudits(
	ctx context.Context,
	auditUseCase erasureUseCase.DeletionAuditUseCase,
	logger *slog.Logger,
	writer io.Writer,
	startDate, endDate, format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	start, err := parseDate(startDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	end, err := parseDate(endDate)
	if err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}
	if !end.After(start) {
		return fmt.Errorf("end date must be after start date")
	}

	report, err := auditUseCase.Verify(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to verify deletion audits: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, report); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer, "Deletion Audit Verification Report\n")
		_, _ = fmt.Fprintf(writer, "==================================\n\n")
		_, _ = fmt.Fprintf(writer, "Time Range: %s to %s\n\n", start.Format(time.DateTime), end.Format(time.DateTime))
		_, _ = fmt.Fprintf(writer, "Total Checked:  %d\n", report.Total)
		_, _ = fmt.Fprintf(writer, "Valid:          %d\n", report.Valid)
		_, _ = fmt.Fprintf(writer, "Unsigned:       %d\n", report.Unsigned)
		_, _ = fmt.Fprintf(writer, "Invalid:        %d\n", len(report.Invalid))
		for _, id := range report.Invalid {
			_, _ = fmt.Fprintf(writer, "  - %s\n", id)
		}
	}

	if len(report.Invalid) > 0 {
		logger.Error("deletion audit verification found invalid signatures",
			slog.Int("invalid", len(report.Invalid)),
		)
		return fmt.Errorf("found %d deletion audit record(s) with invalid signatures", len(report.Invalid))
	}

	logger.Info("deletion audit verification passed", slog.Int("total", report.Total))
	return nil
}
