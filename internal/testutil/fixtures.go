package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/domain"
)

// NewTestUser creates an active customer for testing
func NewTestUser() *domain.User {
	now := time.Now()
	return &domain.User{
		ID:        uuid.New(),
		Email:     "customer@example.com",
		FullName:  "Test Customer",
		Role:      domain.RoleCustomer,
		Status:    domain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestAccount creates an active checking account with the given balance
func NewTestAccount(userID uuid.UUID, balance string) *domain.Account {
	now := time.Now()
	return &domain.Account{
		ID:        uuid.New(),
		UserID:    userID,
		Number:    "4000000001",
		Type:      domain.AccountTypeChecking,
		Currency:  domain.DefaultCurrency,
		Balance:   decimal.RequireFromString(balance),
		Status:    domain.AccountStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestLoan creates an approved loan awaiting disbursement
func NewTestLoan(userID, accountID uuid.UUID) *domain.Loan {
	now := time.Now()
	return &domain.Loan{
		ID:              uuid.New(),
		UserID:          userID,
		AccountID:       accountID,
		RequestedAmount: decimal.NewFromInt(10000),
		ApprovedAmount:  decimal.NewFromInt(9500),
		TermMonths:      12,
		APR:             decimal.RequireFromString("0.0599"),
		CreditScore:     780,
		CreditBand:      domain.CreditBandExcellent,
		MonthlyPayment:  decimal.RequireFromString("817.65"),
		TotalPayable:    decimal.RequireFromString("9811.80"),
		TotalInterest:   decimal.RequireFromString("311.80"),
		Status:          domain.LoanStatusApproved,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// NewTestWire creates a pending domestic wire
func NewTestWire(userID, accountID uuid.UUID) *domain.WireTransfer {
	now := time.Now()
	return &domain.WireTransfer{
		ID:                 uuid.New(),
		UserID:             userID,
		AccountID:          accountID,
		Reference:          "WT-20240315-ABC123",
		Type:               domain.WireTypeDomestic,
		Amount:             decimal.NewFromInt(1000),
		Fee:                decimal.NewFromInt(25),
		BeneficiaryName:    "Jane Roe",
		BankName:           "First Bank",
		BeneficiaryAccount: "123456789",
		RoutingNumber:      "021000021",
		Status:             domain.WireStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
