// Package domain contains the core business entities and types for Ledgerline.
//
// This package defines:
//   - Entity types (User, Account, LedgerEntry, Loan, Holding, etc.)
//   - Value objects and enums
//   - Input types for service operations
//   - Validation rules that do not need storage (ABA, SWIFT, loan terms)
//
// All monetary values are shopspring/decimal values in USD. Money is kept
// to cents and crypto quantities to 8 decimal places.
//
// # Naming Conventions
//
// Types ending in "Input" are used for create/update operations.
// Types ending in "Filter" are used for query operations.
package domain
