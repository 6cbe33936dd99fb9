package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/allisson/treatment-register/internal/app"
	"github.com/allisson/treatment-register/internal/config"
)

// backgroundJob is a long running loop that stops when its context is cancelled.
type backgroundJob interface {
	Start(ctx context.Context) error
}

// RunWorker starts the outbox event processor and the deletion audit retention purge.
// Both loops stop on SIGINT/SIGTERM. If one loop fails the other is cancelled.
func RunWorker(ctx context.Context, version string) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting worker", slog.String("version", version))

	defer closeContainer(container, logger)

	outbox, err := container.OutboxUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize outbox use case: %w", err)
	}

	purge, err := container.RetentionPurgeUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize retention purge use case: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return runJobs(ctx, logger, map[string]backgroundJob{
		"outbox":          outbox,
		"retention_purge": purge,
	})
}

// runJobs runs every job until ctx is cancelled. Cancellation is a clean exit.
func runJobs(ctx context.Context, logger *slog.Logger, jobs map[string]backgroundJob) error {
	g, ctx := errgroup.WithContext(ctx)
	for name, job := range jobs {
		g.Go(func() error {
			if err := job.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		logger.Error("worker stopped with error", slog.Any("error", err))
		return err
	}

	logger.Info("worker stopped")
	return nil
}
