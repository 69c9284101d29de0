package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WireType distinguishes domestic from international wires
type WireType string

const (
	WireTypeDomestic      WireType = "domestic"
	WireTypeInternational WireType = "international"
)

// IsValid checks if the wire type is valid
func (t WireType) IsValid() bool {
	return t == WireTypeDomestic || t == WireTypeInternational
}

// WireStatus represents the processing state of a wire
type WireStatus string

const (
	WireStatusPending   WireStatus = "pending"
	WireStatusCompleted WireStatus = "completed"
	WireStatusRejected  WireStatus = "rejected"
	WireStatusCancelled WireStatus = "cancelled"
)

// IsValid checks if the wire status is valid
func (s WireStatus) IsValid() bool {
	switch s {
	case WireStatusPending, WireStatusCompleted, WireStatusRejected, WireStatusCancelled:
		return true
	}
	return false
}

// WireTransfer is an outgoing wire
type WireTransfer struct {
	ID                 uuid.UUID       `json:"id"`
	UserID             uuid.UUID       `json:"userId"`
	AccountID          uuid.UUID       `json:"accountId"`
	Reference          string          `json:"reference"`
	Type               WireType        `json:"type"`
	Amount             decimal.Decimal `json:"amount"`
	Fee                decimal.Decimal `json:"fee"`
	BeneficiaryName    string          `json:"beneficiaryName"`
	BankName           string          `json:"bankName"`
	BeneficiaryAccount string          `json:"beneficiaryAccount"`
	RoutingNumber      string          `json:"routingNumber,omitempty"`
	SwiftCode          string          `json:"swiftCode,omitempty"`
	Memo               string          `json:"memo,omitempty"`
	Status             WireStatus      `json:"status"`
	RejectionReason    string          `json:"rejectionReason,omitempty"`
	ProcessedBy        *uuid.UUID      `json:"processedBy,omitempty"`
	ProcessedAt        *time.Time      `json:"processedAt,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// Total is the amount debited for the wire
func (w *WireTransfer) Total() decimal.Decimal {
	return w.Amount.Add(w.Fee)
}

// WireInput is a wire transfer request
type WireInput struct {
	AccountID          uuid.UUID
	Amount             decimal.Decimal
	Type               WireType
	BeneficiaryName    string
	BankName           string
	BeneficiaryAccount string
	RoutingNumber      string
	SwiftCode          string
	Memo               string
}

// WireFilter represents filter options for wire lists
type WireFilter struct {
	UserID *uuid.UUID
	Status *WireStatus
	Type   *WireType
}

// ValidABARouting checks a 9 digit ABA routing number against its checksum
func ValidABARouting(s string) bool {
	if len(s) != 9 {
		return false
	}
	var d [9]int
	for i := 0; i < 9; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		d[i] = int(s[i] - '0')
	}
	sum := 3*(d[0]+d[3]+d[6]) + 7*(d[1]+d[4]+d[7]) + (d[2] + d[5] + d[8])
	return sum%10 == 0
}

// ValidSWIFT checks the shape of an 8 or 11 character SWIFT/BIC code
func ValidSWIFT(s string) bool {
	if len(s) != 8 && len(s) != 11 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		upper := c >= 'A' && c <= 'Z'
		digit := c >= '0' && c <= '9'
		switch {
		case i < 6:
			if !upper {
				return false
			}
		default:
			if !upper && !digit {
				return false
			}
		}
	}
	return true
}
