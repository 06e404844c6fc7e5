package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/drydock-works/drydock/internal/shared"
)

// IdempotencyCleanupJob prunes processed request keys past their retention.
type IdempotencyCleanupJob struct {
	Store     *shared.IdempotencyStore
	Logger    *slog.Logger
	Retention time.Duration
}

// NewIdempotencyCleanupJob initialises the cleanup handler.
func NewIdempotencyCleanupJob(store *shared.IdempotencyStore, logger *slog.Logger, retention time.Duration) *IdempotencyCleanupJob {
	if retention <= 0 {
		retention = 48 * time.Hour
	}
	return &IdempotencyCleanupJob{Store: store, Logger: logger, Retention: retention}
}

// Handle executes the prune.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	if err := j.Store.Cleanup(ctx, j.Retention); err != nil {
		j.Logger.Error("idempotency cleanup failed", slog.Any("error", err))
		return err
	}
	j.Logger.Info("idempotency cleanup done", slog.Duration("retention", j.Retention))
	return nil
}
