package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeOverdueScan is the daily unpaid-invoice reminder scan.
	TaskTypeOverdueScan = "billing:overdue_scan"
	// TaskTypeIdempotencyCleanup prunes expired idempotency keys.
	TaskTypeIdempotencyCleanup = "platform:idempotency_cleanup"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: SMTP delivery once the mail relay is provisioned.
	fmt.Printf("[jobs] send email to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}

// NewOverdueScanTask constructs the cron task for the overdue scan.
func NewOverdueScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeOverdueScan, nil)
}

// NewIdempotencyCleanupTask constructs the cron task for key pruning.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeIdempotencyCleanup, nil)
}
