package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/domain"
)

type recordingPublisher struct {
	published []*domain.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, n *domain.Notification) {
	p.published = append(p.published, n)
}

type recordingEnqueuer struct {
	emails []*domain.EmailMessage
	err    error
}

func (e *recordingEnqueuer) EnqueueEmail(_ context.Context, msg *domain.EmailMessage) error {
	if e.err != nil {
		return e.err
	}
	e.emails = append(e.emails, msg)
	return nil
}

func TestNotificationService_Notify(t *testing.T) {
	userID := uuid.New()
	users := new(MockUserRepository)
	users.On("GetByID", mock.Anything, userID).Return(&domain.User{ID: userID, Email: "ada@bank.test"}, nil)
	pub := &recordingPublisher{}
	emails := &recordingEnqueuer{}
	svc := NewNotificationService(pub, emails, users, testLogger)
	svc.now = fixedClock

	svc.Notify(context.Background(), userID, domain.EventTypeWireCompleted, "Wire completed", "Your wire was sent", "WR1")

	require.Len(t, pub.published, 1)
	n := pub.published[0]
	assert.Equal(t, userID, n.UserID)
	assert.Equal(t, domain.EventTypeWireCompleted, n.Type)
	assert.Equal(t, "WR1", n.ResourceID)
	assert.Equal(t, fixedNow, n.CreatedAt)

	require.Len(t, emails.emails, 1)
	assert.Equal(t, &domain.EmailMessage{To: "ada@bank.test", Subject: "Wire completed", Body: "Your wire was sent"}, emails.emails[0])
}

func TestNotificationService_WithoutEmail(t *testing.T) {
	users := new(MockUserRepository)
	pub := &recordingPublisher{}
	svc := NewNotificationService(pub, nil, users, testLogger)

	svc.Notify(context.Background(), uuid.New(), domain.EventTypeLoanDecided, "Loan", "decided", "")

	assert.Len(t, pub.published, 1)
	users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestNotificationService_FailuresAreSwallowed(t *testing.T) {
	userID := uuid.New()

	t.Run("unknown recipient", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetByID", mock.Anything, userID).Return(nil, errors.New("gone"))
		emails := &recordingEnqueuer{}
		svc := NewNotificationService(nil, emails, users, testLogger)

		svc.Notify(context.Background(), userID, domain.EventTypeLoanOverdue, "Overdue", "late", "")
		assert.Empty(t, emails.emails)
	})

	t.Run("queue down", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetByID", mock.Anything, userID).Return(&domain.User{ID: userID, Email: "a@bank.test"}, nil)
		svc := NewNotificationService(nil, &recordingEnqueuer{err: errors.New("redis down")}, users, testLogger)

		assert.NotPanics(t, func() {
			svc.Notify(context.Background(), userID, domain.EventTypeLoanOverdue, "Overdue", "late", "")
		})
	})
}
