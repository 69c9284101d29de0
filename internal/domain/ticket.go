package domain

import (
	"time"

	"github.com/google/uuid"
)

// TicketCategory classifies a support ticket
type TicketCategory string

const (
	TicketCategoryAccount TicketCategory = "account"
	TicketCategoryLoan    TicketCategory = "loan"
	TicketCategoryCrypto  TicketCategory = "crypto"
	TicketCategoryDeposit TicketCategory = "deposit"
	TicketCategoryWire    TicketCategory = "wire"
	TicketCategoryOther   TicketCategory = "other"
)

// IsValid checks if the ticket category is valid
func (c TicketCategory) IsValid() bool {
	switch c {
	case TicketCategoryAccount, TicketCategoryLoan, TicketCategoryCrypto,
		TicketCategoryDeposit, TicketCategoryWire, TicketCategoryOther:
		return true
	}
	return false
}

// TicketPriority orders tickets for staff
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityNormal TicketPriority = "normal"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// IsValid checks if the ticket priority is valid
func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityNormal, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// TicketStatus represents the ticket workflow state
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// IsValid checks if the ticket status is valid
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// Ticket is a customer support conversation
type Ticket struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"userId"`
	Subject    string          `json:"subject"`
	Category   TicketCategory  `json:"category"`
	Priority   TicketPriority  `json:"priority"`
	Status     TicketStatus    `json:"status"`
	AssignedTo *uuid.UUID      `json:"assignedTo,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	Messages   []TicketMessage `json:"messages,omitempty"`
}

// TicketMessage is one message in a ticket thread
type TicketMessage struct {
	ID        uuid.UUID `json:"id"`
	TicketID  uuid.UUID `json:"ticketId"`
	AuthorID  uuid.UUID `json:"authorId"`
	IsStaff   bool      `json:"isStaff"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// TicketInput opens a ticket with its first message
type TicketInput struct {
	Subject  string
	Category TicketCategory
	Priority TicketPriority
	Message  string
}

// TicketFilter represents filter options for ticket lists
type TicketFilter struct {
	UserID     *uuid.UUID
	Status     *TicketStatus
	Priority   *TicketPriority
	AssignedTo *uuid.UUID
}
