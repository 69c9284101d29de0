package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCryptoAssets are the tradeable assets when no setting overrides them
var DefaultCryptoAssets = []string{"BTC", "ETH", "LTC", "USDT"}

// CryptoSide is buy or sell
type CryptoSide string

const (
	CryptoSideBuy  CryptoSide = "buy"
	CryptoSideSell CryptoSide = "sell"
)

// CryptoStatus represents the settlement state of a crypto transaction
type CryptoStatus string

const (
	CryptoStatusPending   CryptoStatus = "pending"
	CryptoStatusSettled   CryptoStatus = "settled"
	CryptoStatusCancelled CryptoStatus = "cancelled"
)

// IsValid checks if the crypto status is valid
func (s CryptoStatus) IsValid() bool {
	return s == CryptoStatusPending || s == CryptoStatusSettled || s == CryptoStatusCancelled
}

// Holding is a user's position in one asset
type Holding struct {
	UserID    uuid.UUID       `json:"userId"`
	Asset     string          `json:"asset"`
	Quantity  decimal.Decimal `json:"quantity"`
	CostBasis decimal.Decimal `json:"costBasis"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// CryptoTransaction is a buy or sell order awaiting or past settlement
type CryptoTransaction struct {
	ID            uuid.UUID        `json:"id"`
	UserID        uuid.UUID        `json:"userId"`
	AccountID     uuid.UUID        `json:"accountId"`
	Side          CryptoSide       `json:"side"`
	Asset         string           `json:"asset"`
	Quantity      decimal.Decimal  `json:"quantity"`
	Price         decimal.Decimal  `json:"price"`
	Amount        decimal.Decimal  `json:"amount"`
	Fee           decimal.Decimal  `json:"fee"`
	AvgCostAtSale *decimal.Decimal `json:"avgCostAtSale,omitempty"`
	CostRemoved   *decimal.Decimal `json:"costRemoved,omitempty"`
	Status        CryptoStatus     `json:"status"`
	SettledBy     *uuid.UUID       `json:"settledBy,omitempty"`
	SettledAt     *time.Time       `json:"settledAt,omitempty"`
	CancelReason  string           `json:"cancelReason,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// Proceeds is the USD credited when a sell settles
func (t *CryptoTransaction) Proceeds() decimal.Decimal {
	return t.Amount.Sub(t.Fee)
}

// BuyInput is a request to buy an asset for a USD amount
type BuyInput struct {
	AccountID uuid.UUID
	Asset     string
	AmountUSD decimal.Decimal
}

// SellInput is a request to sell a quantity of an asset
type SellInput struct {
	AccountID uuid.UUID
	Asset     string
	Quantity  decimal.Decimal
}

// CryptoFilter represents filter options for crypto transaction lists
type CryptoFilter struct {
	UserID *uuid.UUID
	Status *CryptoStatus
	Side   *CryptoSide
	Asset  string
}

// Position is a holding valued at the current price
type Position struct {
	Asset         string          `json:"asset"`
	Quantity      decimal.Decimal `json:"quantity"`
	CostBasis     decimal.Decimal `json:"costBasis"`
	Price         decimal.Decimal `json:"price"`
	MarketValue   decimal.Decimal `json:"marketValue"`
	UnrealizedPnL decimal.Decimal `json:"unrealizedPnl"`
}

// Portfolio is the valued set of a user's holdings
type Portfolio struct {
	Positions     []Position      `json:"positions"`
	CostBasis     decimal.Decimal `json:"costBasis"`
	MarketValue   decimal.Decimal `json:"marketValue"`
	UnrealizedPnL decimal.Decimal `json:"unrealizedPnl"`
}

// Quote is a USD price for an asset
type Quote struct {
	Asset  string          `json:"asset"`
	Price  decimal.Decimal `json:"price"`
	Source string          `json:"source"`
	AsOf   time.Time       `json:"asOf"`
}
