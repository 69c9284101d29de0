package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/domain"
)

// LoanApplicationRequest applies for a loan
type LoanApplicationRequest struct {
	AccountID     uuid.UUID        `json:"accountId" validate:"required"`
	Amount        decimal.Decimal  `json:"amount" validate:"decimal_gt0"`
	TermMonths    int              `json:"termMonths" validate:"required,oneof=6 12 24 36 48 60"`
	Purpose       string           `json:"purpose" validate:"max=500"`
	CreditScore   int              `json:"creditScore" validate:"required,min=300,max=850"`
	MonthlyIncome *decimal.Decimal `json:"monthlyIncome" validate:"omitempty,decimal_gt0"`
}

// ToInput converts the request for the loan service
func (r *LoanApplicationRequest) ToInput() *domain.LoanApplication {
	return &domain.LoanApplication{
		AccountID:     r.AccountID,
		Amount:        r.Amount,
		TermMonths:    r.TermMonths,
		Purpose:       r.Purpose,
		CreditScore:   r.CreditScore,
		MonthlyIncome: r.MonthlyIncome,
	}
}

// LoanRepaymentRequest repays a loan. Without an amount the monthly payment is used.
type LoanRepaymentRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"omitempty,decimal_gt0"`
}

// BuyRequest buys an asset for a USD amount
type BuyRequest struct {
	AccountID uuid.UUID       `json:"accountId" validate:"required"`
	Asset     string          `json:"asset" validate:"required,alphanum,max=10"`
	AmountUSD decimal.Decimal `json:"amountUsd" validate:"decimal_gt0"`
}

// ToInput converts the request for the crypto service
func (r *BuyRequest) ToInput() *domain.BuyInput {
	return &domain.BuyInput{AccountID: r.AccountID, Asset: r.Asset, AmountUSD: r.AmountUSD}
}

// SellRequest sells a quantity of an asset
type SellRequest struct {
	AccountID uuid.UUID       `json:"accountId" validate:"required"`
	Asset     string          `json:"asset" validate:"required,alphanum,max=10"`
	Quantity  decimal.Decimal `json:"quantity" validate:"quantity_gt0"`
}

// ToInput converts the request for the crypto service
func (r *SellRequest) ToInput() *domain.SellInput {
	return &domain.SellInput{AccountID: r.AccountID, Asset: r.Asset, Quantity: r.Quantity}
}

// DepositForm holds the text fields of a multipart mobile deposit
type DepositForm struct {
	AccountID   uuid.UUID       `validate:"required"`
	Amount      decimal.Decimal `validate:"decimal_gt0"`
	CheckNumber string          `validate:"required,numeric,max=15"`
}

// WireRequest submits a wire transfer
type WireRequest struct {
	AccountID          uuid.UUID       `json:"accountId" validate:"required"`
	Amount             decimal.Decimal `json:"amount" validate:"decimal_gt0"`
	Type               domain.WireType `json:"type" validate:"required,oneof=domestic international"`
	BeneficiaryName    string          `json:"beneficiaryName" validate:"required,max=140"`
	BankName           string          `json:"bankName" validate:"required,max=140"`
	BeneficiaryAccount string          `json:"beneficiaryAccount" validate:"required,max=34"`
	RoutingNumber      string          `json:"routingNumber" validate:"required_if=Type domestic,omitempty,aba_routing"`
	SwiftCode          string          `json:"swiftCode" validate:"required_if=Type international,omitempty,swift_bic"`
	Memo               string          `json:"memo" validate:"max=140"`
}

// ToInput converts the request for the wire service
func (r *WireRequest) ToInput() *domain.WireInput {
	return &domain.WireInput{
		AccountID:          r.AccountID,
		Amount:             r.Amount,
		Type:               r.Type,
		BeneficiaryName:    r.BeneficiaryName,
		BankName:           r.BankName,
		BeneficiaryAccount: r.BeneficiaryAccount,
		RoutingNumber:      r.RoutingNumber,
		SwiftCode:          r.SwiftCode,
		Memo:               r.Memo,
	}
}

// TicketRequest opens a support ticket
type TicketRequest struct {
	Subject  string                `json:"subject" validate:"required,max=200"`
	Category domain.TicketCategory `json:"category" validate:"required,oneof=account loan crypto deposit wire other"`
	Priority domain.TicketPriority `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Message  string                `json:"message" validate:"required,max=5000"`
}

// ToInput converts the request for the ticket service
func (r *TicketRequest) ToInput() *domain.TicketInput {
	return &domain.TicketInput{Subject: r.Subject, Category: r.Category, Priority: r.Priority, Message: r.Message}
}

// MessageRequest posts a reply on a ticket
type MessageRequest struct {
	Body string `json:"body" validate:"required,max=5000"`
}
