package domain

import "github.com/shopspring/decimal"

// Decimal places used for stored values
const (
	CentsPlaces    = 2
	QuantityPlaces = 8
	PricePlaces    = 8
)

// Price rounds a unit price half-up to 8 decimal places
func Price(d decimal.Decimal) decimal.Decimal {
	return d.Round(PricePlaces)
}

// Cents rounds d half-up to whole cents
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(CentsPlaces)
}

// IsCents reports whether d has no fractional cents
func IsCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(CentsPlaces))
}

// Percent returns pct percent of amount rounded to cents
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return Cents(amount.Mul(pct).Div(decimal.NewFromInt(100)))
}
