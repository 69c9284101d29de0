package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Loan application limits
var (
	MinLoanAmount = decimal.NewFromInt(500)
	MaxLoanAmount = decimal.NewFromInt(100000)
)

// Credit score limits
const (
	MinCreditScore = 300
	MaxCreditScore = 850
)

// LoanTerms lists the allowed loan terms in months
var LoanTerms = []int{6, 12, 24, 36, 48, 60}

// IsValidLoanTerm checks whether months is an offered term
func IsValidLoanTerm(months int) bool {
	for _, t := range LoanTerms {
		if t == months {
			return true
		}
	}
	return false
}

// LoanStatus represents the loan lifecycle state
type LoanStatus string

const (
	LoanStatusApproved LoanStatus = "approved"
	LoanStatusRejected LoanStatus = "rejected"
	LoanStatusDeclined LoanStatus = "declined"
	LoanStatusActive   LoanStatus = "active"
	LoanStatusPaidOff  LoanStatus = "paid_off"
)

// IsValid checks if the loan status is valid
func (s LoanStatus) IsValid() bool {
	switch s {
	case LoanStatusApproved, LoanStatusRejected, LoanStatusDeclined, LoanStatusActive, LoanStatusPaidOff:
		return true
	}
	return false
}

// CreditBand groups credit scores for pricing and approval
type CreditBand string

const (
	CreditBandExcellent CreditBand = "excellent"
	CreditBandGood      CreditBand = "good"
	CreditBandFair      CreditBand = "fair"
	CreditBandPoor      CreditBand = "poor"
	CreditBandVeryPoor  CreditBand = "very_poor"
)

// Loan is a customer loan from application to payoff
type Loan struct {
	ID               uuid.UUID        `json:"id"`
	UserID           uuid.UUID        `json:"userId"`
	AccountID        uuid.UUID        `json:"accountId"`
	RequestedAmount  decimal.Decimal  `json:"requestedAmount"`
	ApprovedAmount   decimal.Decimal  `json:"approvedAmount"`
	TermMonths       int              `json:"termMonths"`
	APR              decimal.Decimal  `json:"apr"`
	Purpose          string           `json:"purpose,omitempty"`
	CreditScore      int              `json:"creditScore"`
	CreditBand       CreditBand       `json:"creditBand"`
	MonthlyIncome    *decimal.Decimal `json:"monthlyIncome,omitempty"`
	MonthlyPayment   decimal.Decimal  `json:"monthlyPayment"`
	TotalPayable     decimal.Decimal  `json:"totalPayable"`
	TotalInterest    decimal.Decimal  `json:"totalInterest"`
	RemainingBalance decimal.Decimal  `json:"remainingBalance"`
	PaymentsMade     int              `json:"paymentsMade"`
	Status           LoanStatus       `json:"status"`
	Overdue          bool             `json:"overdue"`
	DecisionReason   string           `json:"decisionReason,omitempty"`
	ReviewedBy       *uuid.UUID       `json:"reviewedBy,omitempty"`
	ReviewedAt       *time.Time       `json:"reviewedAt,omitempty"`
	DisbursedAt      *time.Time       `json:"disbursedAt,omitempty"`
	NextPaymentDue   *time.Time       `json:"nextPaymentDue,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Schedule holds the amortized repayment figures for a principal
type Schedule struct {
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
	TotalPayable   decimal.Decimal `json:"totalPayable"`
	TotalInterest  decimal.Decimal `json:"totalInterest"`
}

// ApplySchedule copies s onto the loan
func (l *Loan) ApplySchedule(s Schedule) {
	l.MonthlyPayment = s.MonthlyPayment
	l.TotalPayable = s.TotalPayable
	l.TotalInterest = s.TotalInterest
}

// LoanApplication is a customer loan request
type LoanApplication struct {
	AccountID     uuid.UUID
	Amount        decimal.Decimal
	TermMonths    int
	Purpose       string
	CreditScore   int
	MonthlyIncome *decimal.Decimal
}

// LoanReviewInput is an admin override of a loan decision.
// Nil fields keep the current value.
type LoanReviewInput struct {
	Status         *LoanStatus
	ApprovedAmount *decimal.Decimal
	APR            *decimal.Decimal
	TermMonths     *int
	Reason         string
}

// LoanFilter represents filter options for loan lists
type LoanFilter struct {
	UserID  *uuid.UUID
	Status  *LoanStatus
	Overdue *bool
}
