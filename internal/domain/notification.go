package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of customer facing event
type EventType string

const (
	EventTypeLoanDecided      EventType = "loan.decided"
	EventTypeLoanReviewed     EventType = "loan.reviewed"
	EventTypeLoanDisbursed    EventType = "loan.disbursed"
	EventTypeLoanRepaid       EventType = "loan.repaid"
	EventTypeLoanOverdue      EventType = "loan.overdue"
	EventTypeCryptoSubmitted  EventType = "crypto.submitted"
	EventTypeCryptoSettled    EventType = "crypto.settled"
	EventTypeCryptoCancelled  EventType = "crypto.cancelled"
	EventTypeDepositSubmitted EventType = "deposit.submitted"
	EventTypeDepositApproved  EventType = "deposit.approved"
	EventTypeDepositRejected  EventType = "deposit.rejected"
	EventTypeWireSubmitted    EventType = "wire.submitted"
	EventTypeWireCompleted    EventType = "wire.completed"
	EventTypeWireRejected     EventType = "wire.rejected"
	EventTypeWireCancelled    EventType = "wire.cancelled"
	EventTypeTicketReplied    EventType = "ticket.replied"
	EventTypeTicketStatus     EventType = "ticket.status"
	EventTypeAccountAdjusted  EventType = "account.adjusted"
	EventTypeAccountStatus    EventType = "account.status"
)

// Notification is a plain text message for one user
type Notification struct {
	ID         uuid.UUID      `json:"id"`
	UserID     uuid.UUID      `json:"userId"`
	Type       EventType      `json:"type"`
	Subject    string         `json:"subject"`
	Message    string         `json:"message"`
	ResourceID string         `json:"resourceId,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// EmailMessage is a queued plain text email
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
