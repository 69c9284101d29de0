package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/domain"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
)

// MockTicketRepository is a mock implementation of TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Update(ctx context.Context, t *domain.Ticket) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTicketRepository) Touch(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTicketRepository) AddMessage(ctx context.Context, msg *domain.TicketMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockTicketRepository) ListMessages(ctx context.Context, ticketID uuid.UUID) ([]domain.TicketMessage, error) {
	args := m.Called(ctx, ticketID)
	return args.Get(0).([]domain.TicketMessage), args.Error(1)
}

func (m *MockTicketRepository) List(ctx context.Context, filter domain.TicketFilter, limit, offset int) ([]domain.Ticket, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	return args.Get(0).([]domain.Ticket), args.Int(1), args.Error(2)
}

func newTicketService(repo *MockTicketRepository, notifier *recordingNotifier) (*TicketService, *MockAuditRecorder) {
	audit := new(MockAuditRecorder)
	audit.On("Log", mock.Anything, mock.Anything).Return(&domain.AuditLog{}, nil).Maybe()
	svc := NewTicketService(&passthroughTx{}, repo, new(MockUserRepository), notifier, audit, testLogger)
	svc.now = fixedClock
	return svc, audit
}

func TestTicketService_Create(t *testing.T) {
	repo := new(MockTicketRepository)
	svc, _ := newTicketService(repo, &recordingNotifier{})
	userID := uuid.New()

	repo.On("Create", mock.Anything, mock.MatchedBy(func(tk *domain.Ticket) bool {
		return tk.Priority == domain.TicketPriorityNormal && tk.Status == domain.TicketStatusOpen
	})).Return(nil).Once()
	repo.On("AddMessage", mock.Anything, mock.MatchedBy(func(m *domain.TicketMessage) bool {
		return m.Body == "My card was declined" && !m.IsStaff && m.AuthorID == userID
	})).Return(nil).Once()

	ticket, err := svc.Create(context.Background(), userID, &domain.TicketInput{
		Subject:  "  Card declined ",
		Category: domain.TicketCategoryAccount,
		Message:  "My card was declined",
	})
	require.NoError(t, err)

	assert.Equal(t, "Card declined", ticket.Subject)
	require.Len(t, ticket.Messages, 1)
	repo.AssertExpectations(t)
}

func TestTicketService_Create_Validation(t *testing.T) {
	repo := new(MockTicketRepository)
	svc, _ := newTicketService(repo, &recordingNotifier{})
	ctx := context.Background()

	tests := []struct {
		name string
		in   domain.TicketInput
	}{
		{"empty subject", domain.TicketInput{Subject: " ", Category: domain.TicketCategoryOther, Message: "x"}},
		{"long subject", domain.TicketInput{Subject: strings.Repeat("s", maxTicketSubject+1), Category: domain.TicketCategoryOther, Message: "x"}},
		{"bad category", domain.TicketInput{Subject: "s", Category: "billing", Message: "x"}},
		{"bad priority", domain.TicketInput{Subject: "s", Category: domain.TicketCategoryLoan, Priority: "asap", Message: "x"}},
		{"empty message", domain.TicketInput{Subject: "s", Category: domain.TicketCategoryLoan, Message: "\n"}},
		{"long message", domain.TicketInput{Subject: "s", Category: domain.TicketCategoryLoan, Message: strings.Repeat("m", maxTicketMessage+1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			_, err := svc.Create(ctx, uuid.New(), &in)
			assert.True(t, apperrors.IsValidation(err), "got %v", err)
		})
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTicketService_Reply(t *testing.T) {
	userID := uuid.New()

	t.Run("reopens a resolved ticket", func(t *testing.T) {
		repo := new(MockTicketRepository)
		svc, _ := newTicketService(repo, &recordingNotifier{})
		ticket := &domain.Ticket{ID: uuid.New(), UserID: userID, Status: domain.TicketStatusResolved}
		repo.On("GetByID", mock.Anything, ticket.ID).Return(ticket, nil)
		repo.On("AddMessage", mock.Anything, mock.Anything).Return(nil)
		repo.On("Update", mock.Anything, ticket).Return(nil).Once()

		msg, err := svc.Reply(context.Background(), userID, ticket.ID, "still broken")
		require.NoError(t, err)
		assert.False(t, msg.IsStaff)
		assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
		repo.AssertNotCalled(t, "Touch", mock.Anything, mock.Anything)
	})

	t.Run("touches an open ticket", func(t *testing.T) {
		repo := new(MockTicketRepository)
		svc, _ := newTicketService(repo, &recordingNotifier{})
		ticket := &domain.Ticket{ID: uuid.New(), UserID: userID, Status: domain.TicketStatusInProgress}
		repo.On("GetByID", mock.Anything, ticket.ID).Return(ticket, nil)
		repo.On("AddMessage", mock.Anything, mock.Anything).Return(nil)
		repo.On("Touch", mock.Anything, ticket.ID).Return(nil).Once()

		_, err := svc.Reply(context.Background(), userID, ticket.ID, "any update?")
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
		repo.AssertExpectations(t)
	})

	t.Run("closed tickets reject replies", func(t *testing.T) {
		repo := new(MockTicketRepository)
		svc, _ := newTicketService(repo, &recordingNotifier{})
		ticket := &domain.Ticket{ID: uuid.New(), UserID: userID, Status: domain.TicketStatusClosed}
		repo.On("GetByID", mock.Anything, ticket.ID).Return(ticket, nil)

		_, err := svc.Reply(context.Background(), userID, ticket.ID, "hello")
		assert.True(t, apperrors.IsInvalidState(err))
	})

	t.Run("other customers cannot reply", func(t *testing.T) {
		repo := new(MockTicketRepository)
		svc, _ := newTicketService(repo, &recordingNotifier{})
		ticket := &domain.Ticket{ID: uuid.New(), UserID: userID, Status: domain.TicketStatusOpen}
		repo.On("GetByID", mock.Anything, ticket.ID).Return(ticket, nil)

		_, err := svc.Reply(context.Background(), uuid.New(), ticket.ID, "hello")
		assert.True(t, apperrors.IsNotFound(err))
		repo.AssertNotCalled(t, "AddMessage", mock.Anything, mock.Anything)
	})
}

func TestTicketService_AdminReply(t *testing.T) {
	repo := new(MockTicketRepository)
	notifier := &recordingNotifier{}
	svc, _ := newTicketService(repo, notifier)
	ticket := &domain.Ticket{ID: uuid.New(), UserID: uuid.New(), Subject: "Card", Status: domain.TicketStatusOpen}
	repo.On("GetByID", mock.Anything, ticket.ID).Return(ticket, nil)
	repo.On("AddMessage", mock.Anything, mock.MatchedBy(func(m *domain.TicketMessage) bool { return m.IsStaff })).Return(nil)
	repo.On("Update", mock.Anything, ticket).Return(nil)

	_, err := svc.AdminReply(context.Background(), domain.Actor{ID: uuid.New()}, ticket.ID, "Looking into it")
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
	assert.Equal(t, []domain.EventType{domain.EventTypeTicketReplied}, notifier.events)
	assert.Equal(t, []uuid.UUID{ticket.UserID}, notifier.users)
}

func TestTicketService_SetStatus(t *testing.T) {
	repo := new(MockTicketRepository)
	notifier := &recordingNotifier{}
	svc, audit := newTicketService(repo, notifier)
	ticket := &domain.Ticket{ID: uuid.New(), UserID: uuid.New(), Status: domain.TicketStatusInProgress}
	repo.On("GetByID", mock.Anything, ticket.ID).Return(ticket, nil)
	repo.On("Update", mock.Anything, ticket).Return(nil)
	actor := domain.Actor{ID: uuid.New()}

	_, err := svc.SetStatus(context.Background(), actor, ticket.ID, "done")
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.SetStatus(context.Background(), actor, ticket.ID, domain.TicketStatusResolved)
	require.NoError(t, err)
	audit.AssertCalled(t, "Log", mock.Anything, mock.MatchedBy(func(in *domain.AuditLogInput) bool {
		return in.Action == domain.AuditActionTicketStatusChanged &&
			in.Metadata["from"] == domain.TicketStatusInProgress && in.Metadata["to"] == domain.TicketStatusResolved
	}))
	assert.Equal(t, []domain.EventType{domain.EventTypeTicketStatus}, notifier.events)

	_, err = svc.SetStatus(context.Background(), actor, ticket.ID, domain.TicketStatusResolved)
	require.NoError(t, err)
	assert.Len(t, notifier.events, 1, "unchanged status does not notify")

	_, err = svc.SetStatus(context.Background(), actor, ticket.ID, domain.TicketStatusClosed)
	require.NoError(t, err)
	_, err = svc.SetStatus(context.Background(), actor, ticket.ID, domain.TicketStatusOpen)
	assert.True(t, apperrors.IsInvalidState(err), "closed is terminal")
}

func TestTicketService_Assign(t *testing.T) {
	repo := new(MockTicketRepository)
	users := new(MockUserRepository)
	svc, audit := newTicketService(repo, &recordingNotifier{})
	svc.users = users
	ticket := &domain.Ticket{ID: uuid.New(), Status: domain.TicketStatusOpen}
	repo.On("GetByID", mock.Anything, ticket.ID).Return(ticket, nil)
	repo.On("Update", mock.Anything, ticket).Return(nil)
	staff := uuid.New()
	users.On("GetByID", mock.Anything, staff).Return(&domain.User{ID: staff, Role: domain.RoleAdmin, Status: domain.UserStatusActive}, nil)

	got, err := svc.Assign(context.Background(), domain.Actor{ID: uuid.New()}, ticket.ID, &staff)
	require.NoError(t, err)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, staff, *got.AssignedTo)
	audit.AssertCalled(t, "Log", mock.Anything, mock.MatchedBy(func(in *domain.AuditLogInput) bool {
		return in.Action == domain.AuditActionTicketAssigned
	}))

	got, err = svc.Assign(context.Background(), domain.Actor{ID: uuid.New()}, ticket.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedTo, "nil unassigns without a user lookup")
	users.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestTicketService_Assign_RequiresActiveAdmin(t *testing.T) {
	repo := new(MockTicketRepository)
	users := new(MockUserRepository)
	svc, _ := newTicketService(repo, &recordingNotifier{})
	svc.users = users
	ticketID := uuid.New()

	customer := uuid.New()
	users.On("GetByID", mock.Anything, customer).Return(&domain.User{ID: customer, Role: domain.RoleCustomer, Status: domain.UserStatusActive}, nil)
	suspended := uuid.New()
	users.On("GetByID", mock.Anything, suspended).Return(&domain.User{ID: suspended, Role: domain.RoleAdmin, Status: domain.UserStatusSuspended}, nil)
	ghost := uuid.New()
	users.On("GetByID", mock.Anything, ghost).Return(nil, apperrors.NotFound("user"))
	broken := uuid.New()
	users.On("GetByID", mock.Anything, broken).Return(nil, errors.New("db down"))

	for name, id := range map[string]uuid.UUID{"customer": customer, "suspended admin": suspended, "unknown user": ghost} {
		_, err := svc.Assign(context.Background(), domain.Actor{ID: uuid.New()}, ticketID, &id)
		assert.True(t, apperrors.IsValidation(err), name)
	}

	_, err := svc.Assign(context.Background(), domain.Actor{ID: uuid.New()}, ticketID, &broken)
	require.Error(t, err)
	assert.False(t, apperrors.IsValidation(err))

	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestTicketService_Get(t *testing.T) {
	repo := new(MockTicketRepository)
	svc, _ := newTicketService(repo, &recordingNotifier{})
	userID := uuid.New()
	ticket := &domain.Ticket{ID: uuid.New(), UserID: userID}
	msgs := []domain.TicketMessage{{ID: uuid.New(), Body: "hi"}}
	repo.On("GetByID", mock.Anything, ticket.ID).Return(ticket, nil)
	repo.On("ListMessages", mock.Anything, ticket.ID).Return(msgs, nil)

	got, err := svc.Get(context.Background(), userID, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, msgs, got.Messages)

	_, err = svc.Get(context.Background(), uuid.New(), ticket.ID)
	assert.True(t, apperrors.IsNotFound(err))
}
