package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ledgerline/ledgerline/internal/domain"
)

// Task types
const (
	TypeEmailSend       = "notification:email"
	TypeLedgerSync      = "ledger:sync"
	TypeLoanOverdueScan = "loan:overdue_scan"
)

// Queues, highest priority first
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

const emailMaxRetry = 5

// NewEmailTask creates a task that delivers one email
func NewEmailTask(msg *domain.EmailMessage) (*asynq.Task, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal email payload: %w", err)
	}
	return asynq.NewTask(TypeEmailSend, payload), nil
}

// TaskEnqueuer is the subset of *asynq.Client used to enqueue tasks
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer queues background work from the API process
type Enqueuer struct {
	client TaskEnqueuer
}

// NewEnqueuer creates a new enqueuer
func NewEnqueuer(client TaskEnqueuer) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueEmail queues msg on the default queue
func (e *Enqueuer) EnqueueEmail(ctx context.Context, msg *domain.EmailMessage) error {
	task, err := NewEmailTask(msg)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(emailMaxRetry),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue email: %w", err)
	}
	return nil
}
