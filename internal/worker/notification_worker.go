package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
)

// Mailer sends one email
type Mailer interface {
	Send(ctx context.Context, msg *domain.EmailMessage) error
}

// NotificationWorker delivers queued customer emails
type NotificationWorker struct {
	logger *zap.Logger
	mailer Mailer
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(logger *zap.Logger, mailer Mailer) *NotificationWorker {
	return &NotificationWorker{
		logger: logger,
		mailer: mailer,
	}
}

// RegisterHandlers registers the notification task handlers
func (w *NotificationWorker) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeEmailSend, w.HandleEmailSend)
}

// HandleEmailSend sends the email in the task payload. A malformed payload or
// address is not retried; SMTP failures are.
func (w *NotificationWorker) HandleEmailSend(ctx context.Context, t *asynq.Task) error {
	var msg domain.EmailMessage
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if msg.To == "" {
		return fmt.Errorf("email has no recipient: %w", asynq.SkipRetry)
	}

	if err := w.mailer.Send(ctx, &msg); err != nil {
		if apperrors.IsValidation(err) {
			return fmt.Errorf("failed to send email: %v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to send email: %w", err)
	}

	w.logger.Debug("email delivered", zap.String("subject", msg.Subject))
	return nil
}
