package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
)

// EventPublisher pushes notifications to connected clients
type EventPublisher interface {
	Publish(ctx context.Context, n *domain.Notification)
}

// EmailEnqueuer queues an email for background delivery
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, msg *domain.EmailMessage) error
}

// UserLookup resolves a user's email address
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// NotificationService publishes state changes to the user's event stream
// and queues a plain text email
type NotificationService struct {
	publisher EventPublisher
	emails    EmailEnqueuer
	users     UserLookup
	logger    *zap.Logger
	now       Clock
}

// NewNotificationService creates a new notification service. A nil
// enqueuer disables email.
func NewNotificationService(publisher EventPublisher, emails EmailEnqueuer, users UserLookup, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		publisher: publisher,
		emails:    emails,
		users:     users,
		logger:    logger,
		now:       utcNow,
	}
}

// Notify delivers a notification. Delivery failures are logged and never
// returned, the state change they describe has already committed.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, event domain.EventType, subject, message, resourceID string) {
	n := &domain.Notification{
		ID:         uuid.New(),
		UserID:     userID,
		Type:       event,
		Subject:    subject,
		Message:    message,
		ResourceID: resourceID,
		CreatedAt:  s.now(),
	}

	if s.publisher != nil {
		s.publisher.Publish(ctx, n)
	}
	if s.emails == nil {
		return
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to resolve notification recipient",
			zap.String("user_id", userID.String()),
			zap.String("event", string(event)),
			zap.Error(err),
		)
		return
	}

	if err := s.emails.EnqueueEmail(ctx, &domain.EmailMessage{
		To:      user.Email,
		Subject: subject,
		Body:    message,
	}); err != nil {
		s.logger.Error("failed to enqueue notification email",
			zap.String("user_id", userID.String()),
			zap.String("event", string(event)),
			zap.Error(err),
		)
	}
}
