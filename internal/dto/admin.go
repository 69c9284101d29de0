package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/domain"
)

// ReasonRequest carries the reason of a rejection
type ReasonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// LoanReviewRequest overrides a loan decision. Omitted fields keep their value.
type LoanReviewRequest struct {
	Status         *domain.LoanStatus `json:"status" validate:"omitempty,oneof=approved rejected"`
	ApprovedAmount *decimal.Decimal   `json:"approvedAmount" validate:"omitempty,decimal_gt0"`
	APR            *decimal.Decimal   `json:"apr"`
	TermMonths     *int               `json:"termMonths" validate:"omitempty,oneof=6 12 24 36 48 60"`
	Reason         string             `json:"reason" validate:"max=500"`
}

// ToInput converts the request for the loan service
func (r *LoanReviewRequest) ToInput() *domain.LoanReviewInput {
	return &domain.LoanReviewInput{
		Status:         r.Status,
		ApprovedAmount: r.ApprovedAmount,
		APR:            r.APR,
		TermMonths:     r.TermMonths,
		Reason:         r.Reason,
	}
}

// AdjustmentRequest is a manual balance change
type AdjustmentRequest struct {
	Direction domain.Direction `json:"direction" validate:"required,oneof=credit debit"`
	Amount    decimal.Decimal  `json:"amount" validate:"decimal_gt0"`
	Reason    string           `json:"reason" validate:"required,max=500"`
}

// ToInput converts the request for the account service
func (r *AdjustmentRequest) ToInput() *domain.AdjustmentInput {
	return &domain.AdjustmentInput{Direction: r.Direction, Amount: r.Amount, Reason: r.Reason}
}

// AccountStatusRequest freezes or unfreezes an account
type AccountStatusRequest struct {
	Status domain.AccountStatus `json:"status" validate:"required,oneof=active frozen"`
}

// UserStatusRequest suspends or reactivates a user
type UserStatusRequest struct {
	Status domain.UserStatus `json:"status" validate:"required,oneof=active suspended"`
}

// UserRoleRequest changes a user's role
type UserRoleRequest struct {
	Role domain.Role `json:"role" validate:"required,oneof=customer admin"`
}

// TicketStatusRequest moves a ticket through its workflow
type TicketStatusRequest struct {
	Status domain.TicketStatus `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}

// AssignRequest assigns a ticket. A null assignee unassigns it.
type AssignRequest struct {
	AssigneeID *uuid.UUID `json:"assigneeId"`
}

// SettingRequest updates a setting value
type SettingRequest struct {
	Value string `json:"value" validate:"max=2000"`
}
