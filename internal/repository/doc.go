// Package repository contains data access implementations for Ledgerline.
//
// Repository interfaces are defined at the service layer (consumer-defined
// interfaces). This package tree holds the concrete implementations:
//   - postgres: system of record for users, accounts, the ledger, loans,
//     crypto, deposits, wires, tickets, settings and the audit trail
//   - clickhouse: append-only mirror of ledger entries for reporting
//   - objectstore: check images in MinIO
//
// Postgres repositories join the transaction carried by the request context,
// so a service can compose several writes into one commit.
package repository
