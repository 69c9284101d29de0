package service

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/domain"
)

// RandSource yields uniform draws in [0, 1)
type RandSource interface {
	Float64() float64
}

// SystemRand draws from the process-wide generator
var SystemRand RandSource = systemRand{}

type systemRand struct{}

func (systemRand) Float64() float64 { return rand.Float64() }

// CreditBand describes the approval policy for a credit score range
type CreditBand struct {
	Band        domain.CreditBand
	MinScore    int
	MaxScore    int
	Approval    float64
	MinFraction decimal.Decimal
	MaxFraction decimal.Decimal
	BaseAPR     decimal.Decimal
}

var creditBands = []CreditBand{
	{
		Band: domain.CreditBandExcellent, MinScore: 750, MaxScore: 850, Approval: 0.95,
		MinFraction: decimal.RequireFromString("0.90"), MaxFraction: decimal.RequireFromString("1.00"),
		BaseAPR: decimal.RequireFromString("5.99"),
	},
	{
		Band: domain.CreditBandGood, MinScore: 700, MaxScore: 749, Approval: 0.85,
		MinFraction: decimal.RequireFromString("0.75"), MaxFraction: decimal.RequireFromString("0.90"),
		BaseAPR: decimal.RequireFromString("8.99"),
	},
	{
		Band: domain.CreditBandFair, MinScore: 650, MaxScore: 699, Approval: 0.65,
		MinFraction: decimal.RequireFromString("0.50"), MaxFraction: decimal.RequireFromString("0.75"),
		BaseAPR: decimal.RequireFromString("12.99"),
	},
	{
		Band: domain.CreditBandPoor, MinScore: 600, MaxScore: 649, Approval: 0.40,
		MinFraction: decimal.RequireFromString("0.25"), MaxFraction: decimal.RequireFromString("0.50"),
		BaseAPR: decimal.RequireFromString("17.99"),
	},
	{
		Band: domain.CreditBandVeryPoor, MinScore: domain.MinCreditScore, MaxScore: 599, Approval: 0,
	},
}

// BandForScore returns the credit band containing score
func BandForScore(score int) CreditBand {
	for _, b := range creditBands {
		if score >= b.MinScore && score <= b.MaxScore {
			return b
		}
	}
	return creditBands[len(creditBands)-1]
}

// CreditDecision is the outcome of evaluating a loan application
type CreditDecision struct {
	Band     CreditBand
	Approved bool
	Amount   decimal.Decimal
	Reason   string
}

// DecideCredit draws an approval and, when approved, an amount inside the
// band's fraction range floored to whole dollars and clamped to
// [MinLoanAmount, requested].
func DecideCredit(score int, requested decimal.Decimal, rng RandSource) CreditDecision {
	band := BandForScore(score)
	d := CreditDecision{Band: band}

	if band.Approval <= 0 {
		d.Reason = "credit score below lending minimum"
		return d
	}
	if rng.Float64() >= band.Approval {
		d.Reason = "application declined by credit policy"
		return d
	}

	span := band.MaxFraction.Sub(band.MinFraction)
	fraction := band.MinFraction.Add(span.Mul(decimal.NewFromFloat(rng.Float64())))
	amount := requested.Mul(fraction).Floor()
	if amount.LessThan(domain.MinLoanAmount) {
		amount = domain.MinLoanAmount
	}
	if amount.GreaterThan(requested) {
		amount = requested
	}

	d.Approved = true
	d.Amount = amount
	d.Reason = "approved for " + string(band.Band) + " credit"
	return d
}

var (
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

// Amortize computes the level monthly payment for principal at apr percent
// over months. A zero APR divides the principal evenly.
func Amortize(principal, apr decimal.Decimal, months int) domain.Schedule {
	if months <= 0 || !principal.IsPositive() {
		return domain.Schedule{}
	}
	n := decimal.NewFromInt(int64(months))

	var payment decimal.Decimal
	if !apr.IsPositive() {
		payment = principal.DivRound(n, domain.CentsPlaces)
	} else {
		r := apr.DivRound(hundred, 18).DivRound(twelve, 18)
		growth := decimal.NewFromInt(1)
		onePlusR := growth.Add(r)
		for i := 0; i < months; i++ {
			growth = growth.Mul(onePlusR).Round(18)
		}
		payment = principal.Mul(r).Mul(growth).DivRound(growth.Sub(decimal.NewFromInt(1)), domain.CentsPlaces)
	}

	total := payment.Mul(n)
	return domain.Schedule{
		MonthlyPayment: payment,
		TotalPayable:   total,
		TotalInterest:  total.Sub(principal),
	}
}
