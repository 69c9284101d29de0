package domain

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositStatus represents the review state of a mobile deposit
type DepositStatus string

const (
	DepositStatusPending  DepositStatus = "pending"
	DepositStatusApproved DepositStatus = "approved"
	DepositStatusRejected DepositStatus = "rejected"
)

// IsValid checks if the deposit status is valid
func (s DepositStatus) IsValid() bool {
	return s == DepositStatusPending || s == DepositStatusApproved || s == DepositStatusRejected
}

// MobileDeposit is a check deposited by photo
type MobileDeposit struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"userId"`
	AccountID       uuid.UUID       `json:"accountId"`
	Amount          decimal.Decimal `json:"amount"`
	CheckNumber     string          `json:"checkNumber"`
	FrontImageKey   string          `json:"-"`
	BackImageKey    string          `json:"-"`
	Status          DepositStatus   `json:"status"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
	ReviewedBy      *uuid.UUID      `json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// CheckImage is an uploaded image of one side of a check
type CheckImage struct {
	Body io.Reader
	Size int64
}

// DepositInput is a mobile deposit submission
type DepositInput struct {
	AccountID   uuid.UUID
	Amount      decimal.Decimal
	CheckNumber string
	Front       CheckImage
	Back        CheckImage
}

// DepositImages holds presigned URLs for both sides of a check
type DepositImages struct {
	FrontURL  string    `json:"frontUrl"`
	BackURL   string    `json:"backUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DepositFilter represents filter options for deposit lists
type DepositFilter struct {
	UserID *uuid.UUID
	Status *DepositStatus
}
