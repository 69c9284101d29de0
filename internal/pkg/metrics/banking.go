package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	loanDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerline_loan_decisions_total",
			Help: "Loan application decisions by credit band and outcome",
		},
		[]string{"band", "outcome"},
	)

	cryptoTrades = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerline_crypto_trades_total",
			Help: "Crypto transactions by side, asset and final status",
		},
		[]string{"side", "asset", "status"},
	)

	deposits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerline_mobile_deposits_total",
			Help: "Mobile check deposits by status",
		},
		[]string{"status"},
	)

	wires = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerline_wire_transfers_total",
			Help: "Wire transfers by type and status",
		},
		[]string{"type", "status"},
	)

	ledgerPostings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerline_ledger_postings_total",
			Help: "Ledger entries written by direction and category",
		},
		[]string{"direction", "category"},
	)

	ledgerAmount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerline_ledger_amount_usd_total",
			Help: "Sum of ledger entry amounts in USD by direction",
		},
		[]string{"direction"},
	)

	ledgerSynced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerline_ledger_entries_synced_total",
			Help: "Ledger entries mirrored to the analytics store",
		},
	)
)

// RecordLoanDecision counts a loan decision
func RecordLoanDecision(band, outcome string) {
	loanDecisions.WithLabelValues(band, outcome).Inc()
}

// RecordCryptoTrade counts a crypto transaction reaching status
func RecordCryptoTrade(side, asset, status string) {
	cryptoTrades.WithLabelValues(side, asset, status).Inc()
}

// RecordDeposit counts a mobile deposit reaching status
func RecordDeposit(status string) {
	deposits.WithLabelValues(status).Inc()
}

// RecordWire counts a wire transfer reaching status
func RecordWire(wireType, status string) {
	wires.WithLabelValues(wireType, status).Inc()
}

// RecordPosting counts a ledger entry
func RecordPosting(direction, category string, amount decimal.Decimal) {
	ledgerPostings.WithLabelValues(direction, category).Inc()
	ledgerAmount.WithLabelValues(direction).Add(amount.InexactFloat64())
}

// RecordLedgerSynced counts ledger entries mirrored by the sync job
func RecordLedgerSynced(n int) {
	ledgerSynced.Add(float64(n))
}

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "ledgerline_circuit_state",
		Help: "Circuit breaker state per upstream (0 closed, 1 open, 2 half-open)",
	},
	[]string{"name"},
)

// SetBreakerState publishes the state of the named circuit breaker
func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}
