package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/drydock-works/drydock/internal/billing"
)

// OverdueScanJob finds invoices unpaid past the grace period and enqueues a
// reminder email to the order's customer.
type OverdueScanJob struct {
	Repo        billing.Repository
	Enqueuer    *Client
	Logger      *slog.Logger
	GracePeriod time.Duration
	clock       func() time.Time
}

// NewOverdueScanJob initialises the overdue scan handler.
func NewOverdueScanJob(repo billing.Repository, enqueuer *Client, logger *slog.Logger, gracePeriod time.Duration) *OverdueScanJob {
	if gracePeriod <= 0 {
		gracePeriod = 14 * 24 * time.Hour
	}
	return &OverdueScanJob{
		Repo:        repo,
		Enqueuer:    enqueuer,
		Logger:      logger,
		GracePeriod: gracePeriod,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the scan.
func (j *OverdueScanJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Repo == nil {
		return errors.New("overdue scan: handler not configured")
	}
	start := j.clock()
	cutoff := start.Add(-j.GracePeriod)

	overdue, err := j.Repo.OverdueInvoices(ctx, cutoff)
	if err != nil {
		j.Logger.Error("overdue scan failed", slog.Any("error", err))
		return err
	}

	reminded := 0
	for _, item := range overdue {
		if item.CustomerEmail == "" {
			continue
		}
		payload := SendEmailPayload{
			To:      item.CustomerEmail,
			Subject: fmt.Sprintf("Payment reminder for invoice %s", item.Invoice.Number),
			Body: fmt.Sprintf("Invoice %s for repair order %s has an outstanding balance of %.0f VND.",
				item.Invoice.Number, item.DocNumber, item.Invoice.RemainingAmount),
		}
		if _, err := j.Enqueuer.EnqueueSendEmail(ctx, payload); err != nil {
			j.Logger.Error("enqueue reminder", slog.Any("error", err), slog.Int64("invoice_id", item.Invoice.ID))
			continue
		}
		reminded++
	}

	j.Logger.Info("completed overdue scan",
		slog.Int("overdue", len(overdue)),
		slog.Int("reminded", reminded),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}
