package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	// Authentication actions
	AuditActionLogin       AuditAction = "login"
	AuditActionLoginFailed AuditAction = "login_failed"
	AuditActionRegistered  AuditAction = "registered"
	AuditActionPasswordSet AuditAction = "password_changed"

	// User management
	AuditActionUserCreated       AuditAction = "user_created"
	AuditActionUserStatusChanged AuditAction = "user_status_changed"
	AuditActionUserRoleChanged   AuditAction = "user_role_changed"

	// Accounts
	AuditActionAccountAdjusted AuditAction = "account_adjusted"
	AuditActionAccountFrozen   AuditAction = "account_frozen"
	AuditActionAccountUnfrozen AuditAction = "account_unfrozen"

	// Loans
	AuditActionLoanReviewed  AuditAction = "loan_reviewed"
	AuditActionLoanDisbursed AuditAction = "loan_disbursed"

	// Crypto
	AuditActionCryptoSettled   AuditAction = "crypto_settled"
	AuditActionCryptoCancelled AuditAction = "crypto_cancelled"

	// Deposits
	AuditActionDepositApproved AuditAction = "deposit_approved"
	AuditActionDepositRejected AuditAction = "deposit_rejected"

	// Wires
	AuditActionWireCompleted AuditAction = "wire_completed"
	AuditActionWireRejected  AuditAction = "wire_rejected"

	// Tickets
	AuditActionTicketAssigned      AuditAction = "ticket_assigned"
	AuditActionTicketStatusChanged AuditAction = "ticket_status_changed"

	// Settings changes
	AuditActionSettingsChanged AuditAction = "settings_changed"
)

// AuditResourceType represents the type of resource being audited
type AuditResourceType string

const (
	AuditResourceUser    AuditResourceType = "user"
	AuditResourceAccount AuditResourceType = "account"
	AuditResourceLoan    AuditResourceType = "loan"
	AuditResourceCrypto  AuditResourceType = "crypto_transaction"
	AuditResourceDeposit AuditResourceType = "mobile_deposit"
	AuditResourceWire    AuditResourceType = "wire_transfer"
	AuditResourceTicket  AuditResourceType = "ticket"
	AuditResourceSetting AuditResourceType = "setting"
)

// AuditLog represents an audit log entry
type AuditLog struct {
	ID           uuid.UUID         `json:"id" db:"id"`
	ActorID      *uuid.UUID        `json:"actorId,omitempty" db:"actor_id"`
	ActorEmail   string            `json:"actorEmail" db:"actor_email"` // preserved even if the user changes email
	Action       AuditAction       `json:"action" db:"action"`
	ResourceType AuditResourceType `json:"resourceType" db:"resource_type"`
	ResourceID   string            `json:"resourceId,omitempty" db:"resource_id"`
	Description  string            `json:"description" db:"description"`
	Metadata     map[string]any    `json:"metadata,omitempty" db:"-"`
	IPAddress    string            `json:"ipAddress" db:"ip_address"`
	UserAgent    string            `json:"userAgent" db:"user_agent"`
	CreatedAt    time.Time         `json:"createdAt" db:"created_at"`
}

// AuditLogFilter represents filter options for querying audit logs
type AuditLogFilter struct {
	ActorID      *uuid.UUID
	Action       *AuditAction
	ResourceType *AuditResourceType
	ResourceID   string
	StartTime    *time.Time
	EndTime      *time.Time

	// Pagination
	Limit  int
	Offset int
}

// AuditLogList represents a paginated list of audit logs
type AuditLogList struct {
	Data       []AuditLog `json:"data"`
	TotalCount int        `json:"totalCount"`
	HasMore    bool       `json:"hasMore"`
}

// AuditLogInput represents input for creating an audit log entry
type AuditLogInput struct {
	ActorID      *uuid.UUID
	ActorEmail   string
	Action       AuditAction
	ResourceType AuditResourceType
	ResourceID   string
	Description  string
	Metadata     map[string]any
	IPAddress    string
	UserAgent    string
}

// Actor identifies who performed an audited action
type Actor struct {
	ID        uuid.UUID
	Email     string
	IPAddress string
	UserAgent string
}

// AuditInput builds an audit entry attributed to the actor
func (a Actor) AuditInput(action AuditAction, resource AuditResourceType, resourceID, description string) AuditLogInput {
	in := AuditLogInput{
		ActorEmail:   a.Email,
		Action:       action,
		ResourceType: resource,
		ResourceID:   resourceID,
		Description:  description,
		IPAddress:    a.IPAddress,
		UserAgent:    a.UserAgent,
	}
	if a.ID != uuid.Nil {
		id := a.ID
		in.ActorID = &id
	}
	return in
}
