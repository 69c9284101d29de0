package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
)

const (
	maxTicketSubject = 200
	maxTicketMessage = 5000
)

// TicketRepository defines support ticket repository operations
type TicketRepository interface {
	Create(ctx context.Context, t *domain.Ticket) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	Update(ctx context.Context, t *domain.Ticket) error
	Touch(ctx context.Context, id uuid.UUID) error
	AddMessage(ctx context.Context, m *domain.TicketMessage) error
	ListMessages(ctx context.Context, ticketID uuid.UUID) ([]domain.TicketMessage, error)
	List(ctx context.Context, filter domain.TicketFilter, limit, offset int) ([]domain.Ticket, int, error)
}

// TicketService handles customer support conversations
type TicketService struct {
	tx       Transactor
	repo     TicketRepository
	users    UserLookup
	notifier Notifier
	audit    AuditRecorder
	logger   *zap.Logger
	now      Clock
}

// NewTicketService creates a new ticket service
func NewTicketService(tx Transactor, repo TicketRepository, users UserLookup, notifier Notifier, audit AuditRecorder, logger *zap.Logger) *TicketService {
	return &TicketService{
		tx:       tx,
		repo:     repo,
		users:    users,
		notifier: notifier,
		audit:    audit,
		logger:   logger,
		now:      utcNow,
	}
}

func messageBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", apperrors.Validation("message is required")
	}
	if len(body) > maxTicketMessage {
		return "", apperrors.Validation(fmt.Sprintf("message must be at most %d characters", maxTicketMessage))
	}
	return body, nil
}

// Create opens a ticket with its first message
func (s *TicketService) Create(ctx context.Context, userID uuid.UUID, in *domain.TicketInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(in.Subject)
	if subject == "" || len(subject) > maxTicketSubject {
		return nil, apperrors.Validation(fmt.Sprintf("subject must be 1 to %d characters", maxTicketSubject))
	}
	if !in.Category.IsValid() {
		return nil, apperrors.Validation("invalid ticket category")
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.TicketPriorityNormal
	}
	if !priority.IsValid() {
		return nil, apperrors.Validation("invalid ticket priority")
	}
	body, err := messageBody(in.Message)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ticket := &domain.Ticket{
		ID:        uuid.New(),
		UserID:    userID,
		Subject:   subject,
		Category:  in.Category,
		Priority:  priority,
		Status:    domain.TicketStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	msg := domain.TicketMessage{
		ID:        uuid.New(),
		TicketID:  ticket.ID,
		AuthorID:  userID,
		Body:      body,
		CreatedAt: now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, ticket); err != nil {
			return err
		}
		return s.repo.AddMessage(ctx, &msg)
	})
	if err != nil {
		return nil, err
	}

	ticket.Messages = []domain.TicketMessage{msg}
	return ticket, nil
}

// Get returns a customer's own ticket with its messages
func (s *TicketService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Ticket, error) {
	ticket, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != userID {
		return nil, apperrors.NotFound("ticket")
	}
	return s.withMessages(ctx, ticket)
}

// GetAny returns any ticket with its messages
func (s *TicketService) GetAny(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	ticket, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withMessages(ctx, ticket)
}

func (s *TicketService) withMessages(ctx context.Context, t *domain.Ticket) (*domain.Ticket, error) {
	msgs, err := s.repo.ListMessages(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Messages = msgs
	return t, nil
}

// Reply adds a customer message. Replying to a resolved ticket reopens it.
func (s *TicketService) Reply(ctx context.Context, userID, id uuid.UUID, body string) (*domain.TicketMessage, error) {
	body, err := messageBody(body)
	if err != nil {
		return nil, err
	}

	var msg *domain.TicketMessage
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ticket, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if ticket.UserID != userID {
			return apperrors.NotFound("ticket")
		}
		if ticket.Status == domain.TicketStatusClosed {
			return apperrors.InvalidState("ticket is closed")
		}
		msg, err = s.addMessage(ctx, ticket, userID, false, body)
		if err != nil {
			return err
		}
		if ticket.Status == domain.TicketStatusResolved {
			ticket.Status = domain.TicketStatusOpen
			return s.repo.Update(ctx, ticket)
		}
		return s.repo.Touch(ctx, ticket.ID)
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// AdminReply adds a staff message. An open ticket moves to in progress.
func (s *TicketService) AdminReply(ctx context.Context, actor domain.Actor, id uuid.UUID, body string) (*domain.TicketMessage, error) {
	body, err := messageBody(body)
	if err != nil {
		return nil, err
	}

	var msg *domain.TicketMessage
	var ticket *domain.Ticket
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ticket, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if ticket.Status == domain.TicketStatusClosed {
			return apperrors.InvalidState("ticket is closed")
		}
		msg, err = s.addMessage(ctx, ticket, actor.ID, true, body)
		if err != nil {
			return err
		}
		if ticket.Status == domain.TicketStatusOpen {
			ticket.Status = domain.TicketStatusInProgress
			return s.repo.Update(ctx, ticket)
		}
		return s.repo.Touch(ctx, ticket.ID)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, ticket.UserID, domain.EventTypeTicketReplied, "New reply on your support ticket",
		fmt.Sprintf("Support replied to %q.", ticket.Subject), ticket.ID.String())
	return msg, nil
}

func (s *TicketService) addMessage(ctx context.Context, t *domain.Ticket, authorID uuid.UUID, staff bool, body string) (*domain.TicketMessage, error) {
	msg := &domain.TicketMessage{
		ID:        uuid.New(),
		TicketID:  t.ID,
		AuthorID:  authorID,
		IsStaff:   staff,
		Body:      body,
		CreatedAt: s.now(),
	}
	if err := s.repo.AddMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Assign sets the staff member responsible for a ticket. A nil assignee unassigns it.
func (s *TicketService) Assign(ctx context.Context, actor domain.Actor, id uuid.UUID, assignee *uuid.UUID) (*domain.Ticket, error) {
	if assignee != nil {
		if err := s.requireStaff(ctx, *assignee); err != nil {
			return nil, err
		}
	}

	var ticket *domain.Ticket
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		ticket, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if ticket.Status == domain.TicketStatusClosed {
			return apperrors.InvalidState("ticket is closed")
		}
		ticket.AssignedTo = assignee
		return s.repo.Update(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	desc := "Unassigned ticket"
	if assignee != nil {
		desc = "Assigned ticket to " + assignee.String()
	}
	recordAudit(ctx, s.audit, s.logger, actor.AuditInput(domain.AuditActionTicketAssigned, domain.AuditResourceTicket,
		ticket.ID.String(), desc))
	return ticket, nil
}

// requireStaff fails unless id belongs to an active admin
func (s *TicketService) requireStaff(ctx context.Context, id uuid.UUID) error {
	u, err := s.users.GetByID(ctx, id)
	if apperrors.IsNotFound(err) {
		return apperrors.Validation("assignee must be an existing admin")
	}
	if err != nil {
		return err
	}
	if !u.IsAdmin() || u.Status != domain.UserStatusActive {
		return apperrors.Validation("assignee must be an active admin")
	}
	return nil
}

// SetStatus changes a ticket's status. Closed tickets cannot change.
func (s *TicketService) SetStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, status domain.TicketStatus) (*domain.Ticket, error) {
	if !status.IsValid() {
		return nil, apperrors.Validation("invalid ticket status")
	}

	var ticket *domain.Ticket
	var previous domain.TicketStatus
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		ticket, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if ticket.Status == domain.TicketStatusClosed {
			return apperrors.InvalidState("ticket is closed")
		}
		previous = ticket.Status
		ticket.Status = status
		return s.repo.Update(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}
	if previous == status {
		return ticket, nil
	}

	input := actor.AuditInput(domain.AuditActionTicketStatusChanged, domain.AuditResourceTicket,
		ticket.ID.String(), fmt.Sprintf("Ticket status %s -> %s", previous, status))
	input.Metadata = map[string]any{"from": previous, "to": status}
	recordAudit(ctx, s.audit, s.logger, input)

	s.notifier.Notify(ctx, ticket.UserID, domain.EventTypeTicketStatus, "Support ticket updated",
		fmt.Sprintf("Your ticket %q is now %s.", ticket.Subject, strings.ReplaceAll(string(status), "_", " ")),
		ticket.ID.String())
	return ticket, nil
}

// List lists tickets matching filter
func (s *TicketService) List(ctx context.Context, filter domain.TicketFilter, limit, offset int) ([]domain.Ticket, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}
