package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ledgerline/ledgerline/internal/domain"
	"github.com/ledgerline/ledgerline/internal/pkg/database"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
)

const ticketColumns = `id, user_id, subject, category, priority, status, assigned_to, created_at, updated_at`

// TicketRepository handles support tickets in PostgreSQL
type TicketRepository struct {
	db *database.PostgresDB
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *database.PostgresDB) *TicketRepository {
	return &TicketRepository{db: db}
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(&t.ID, &t.UserID, &t.Subject, &t.Category, &t.Priority, &t.Status, &t.AssignedTo, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create creates a new ticket
func (r *TicketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	_, err := r.db.Querier(ctx).Exec(ctx, `
		INSERT INTO tickets (`+ticketColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, t.ID, t.UserID, t.Subject, t.Category, t.Priority, t.Status, t.AssignedTo, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

// GetByID retrieves a ticket by ID without its messages
func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	t, err := scanTicket(r.db.Querier(ctx).QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("ticket")
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return t, nil
}

// Update persists status, priority and assignment
func (r *TicketRepository) Update(ctx context.Context, t *domain.Ticket) error {
	t.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Querier(ctx).Exec(ctx, `
		UPDATE tickets SET status = $2, priority = $3, assigned_to = $4, updated_at = $5
		WHERE id = $1
	`, t.ID, t.Status, t.Priority, t.AssignedTo, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("ticket")
	}
	return nil
}

// Touch bumps a ticket's updated_at
func (r *TicketRepository) Touch(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Querier(ctx).Exec(ctx, `UPDATE tickets SET updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to touch ticket: %w", err)
	}
	return nil
}

// AddMessage appends a message to a ticket thread
func (r *TicketRepository) AddMessage(ctx context.Context, m *domain.TicketMessage) error {
	_, err := r.db.Querier(ctx).Exec(ctx, `
		INSERT INTO ticket_messages (id, ticket_id, author_id, is_staff, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID, m.TicketID, m.AuthorID, m.IsStaff, m.Body, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add ticket message: %w", err)
	}
	return nil
}

// ListMessages retrieves a ticket thread in chronological order
func (r *TicketRepository) ListMessages(ctx context.Context, ticketID uuid.UUID) ([]domain.TicketMessage, error) {
	rows, err := r.db.Querier(ctx).Query(ctx, `
		SELECT id, ticket_id, author_id, is_staff, body, created_at
		FROM ticket_messages WHERE ticket_id = $1
		ORDER BY created_at, id
	`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.TicketMessage
	for rows.Next() {
		var m domain.TicketMessage
		if err := rows.Scan(&m.ID, &m.TicketID, &m.AuthorID, &m.IsStaff, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ticket message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// List retrieves tickets matching filter, most recently updated first
func (r *TicketRepository) List(ctx context.Context, filter domain.TicketFilter, limit, offset int) ([]domain.Ticket, int, error) {
	var c conditions
	if filter.UserID != nil {
		c.add("user_id = $%d", *filter.UserID)
	}
	if filter.Status != nil {
		c.add("status = $%d", *filter.Status)
	}
	if filter.Priority != nil {
		c.add("priority = $%d", *filter.Priority)
	}
	if filter.AssignedTo != nil {
		c.add("assigned_to = $%d", *filter.AssignedTo)
	}

	var total int
	if err := r.db.Querier(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM tickets `+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tickets: %w", err)
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets ` + c.where() + ` ORDER BY updated_at DESC ` + c.page(limit, offset)
	rows, err := r.db.Querier(ctx).Query(ctx, query, c.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, *t)
	}
	return tickets, total, rows.Err()
}

// CountOpen counts tickets that are open or in progress
func (r *TicketRepository) CountOpen(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE status IN ('open', 'in_progress')`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return n, nil
}
