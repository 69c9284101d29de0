package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the only currency accounts are held in
const DefaultCurrency = "USD"

// AccountType represents the kind of deposit account
type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
)

// IsValid checks if the account type is valid
func (t AccountType) IsValid() bool {
	return t == AccountTypeChecking || t == AccountTypeSavings
}

// AccountStatus represents whether an account accepts postings
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	AccountStatusFrozen AccountStatus = "frozen"
)

// IsValid checks if the account status is valid
func (s AccountStatus) IsValid() bool {
	return s == AccountStatusActive || s == AccountStatusFrozen
}

// Account is a customer deposit account
type Account struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"userId"`
	Number    string          `json:"number"`
	Type      AccountType     `json:"type"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Status    AccountStatus   `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Direction is the side of a ledger entry
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// IsValid checks if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

// EntryCategory classifies what caused a ledger entry
type EntryCategory string

const (
	CategoryLoanDisbursement EntryCategory = "loan_disbursement"
	CategoryLoanRepayment    EntryCategory = "loan_repayment"
	CategoryCryptoBuy        EntryCategory = "crypto_buy"
	CategoryCryptoSell       EntryCategory = "crypto_sell"
	CategoryCryptoRefund     EntryCategory = "crypto_refund"
	CategoryMobileDeposit    EntryCategory = "mobile_deposit"
	CategoryWireTransfer     EntryCategory = "wire_transfer"
	CategoryWireFee          EntryCategory = "wire_fee"
	CategoryWireRefund       EntryCategory = "wire_refund"
	CategoryAdjustment       EntryCategory = "adjustment"
)

// LedgerEntry is one immutable balance change on an account
type LedgerEntry struct {
	ID           uuid.UUID       `json:"id"`
	Seq          int64           `json:"-"`
	AccountID    uuid.UUID       `json:"accountId"`
	Direction    Direction       `json:"direction"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
	Category     EntryCategory   `json:"category"`
	ReferenceID  *uuid.UUID      `json:"referenceId,omitempty"`
	Description  string          `json:"description,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Posting describes a balance change to apply to an account
type Posting struct {
	AccountID   uuid.UUID
	Amount      decimal.Decimal
	Category    EntryCategory
	ReferenceID *uuid.UUID
	Description string
}

// LedgerEntryList is a page of ledger entries
type LedgerEntryList struct {
	Entries    []LedgerEntry `json:"entries"`
	NextCursor string        `json:"nextCursor,omitempty"`
	HasMore    bool          `json:"hasMore"`
}

// AdjustmentInput is an admin manual balance change
type AdjustmentInput struct {
	Direction Direction
	Amount    decimal.Decimal
	Reason    string
}

// DailyVolume aggregates ledger activity for one UTC day
type DailyVolume struct {
	Day     time.Time       `json:"day" ch:"day"`
	Credits decimal.Decimal `json:"credits" ch:"credits"`
	Debits  decimal.Decimal `json:"debits" ch:"debits"`
	Entries uint64          `json:"entries" ch:"entries"`
}
