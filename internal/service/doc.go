// Package service contains the business logic layer for Ledgerline.
//
// Services coordinate between handlers and repositories, implementing the
// banking rules: credit decisions and amortization for loans, settlement
// math for crypto trades, limits for deposits and wires, and the ticket
// workflow.
//
// Services depend on repository interfaces defined in this package. Every
// balance mutation runs inside a Transactor so that the posting, the ledger
// entry and the owning record commit together. Notifications and audit
// records are emitted only after the transaction commits.
//
// # Thread Safety
//
// All services are safe for concurrent use from multiple goroutines.
package service
