package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/drydock-works/drydock/internal/app"
	"github.com/drydock-works/drydock/internal/billing"
	"github.com/drydock-works/drydock/internal/platform/db"
	"github.com/drydock-works/drydock/internal/shared"
	"github.com/drydock-works/drydock/jobs"
)

func main() {
	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	enqueuer, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = enqueuer.Close() }()

	billingRepo := billing.NewRepository(pool)
	overdueScan := jobs.NewOverdueScanJob(billingRepo, enqueuer, logger, cfg.InvoiceGracePeriod)
	cleanup := jobs.NewIdempotencyCleanupJob(shared.NewIdempotencyStore(pool), logger, 0)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeOverdueScan, Handler: overdueScan.Handle},
			{Type: jobs.TaskTypeIdempotencyCleanup, Handler: cleanup.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 8 * * *", Task: jobs.NewOverdueScanTask()},
			{Spec: "30 3 * * *", Task: jobs.NewIdempotencyCleanupTask()},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
