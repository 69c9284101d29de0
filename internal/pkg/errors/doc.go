// Package errors defines AppError, the error every service returns to the
// HTTP layer.
//
// An AppError carries a stable machine code, a message safe to show a
// customer, optional per-field details and the HTTP status it renders as.
// Wrapped causes stay reachable through errors.Is and errors.As but are
// never serialized.
//
// Money movement adds three codes on top of the usual CRUD set:
//
//	INSUFFICIENT_FUNDS   422  a debit would take a balance below zero
//	LIMIT_EXCEEDED       422  a per-transfer or daily limit would be crossed
//	INVALID_STATE        409  the loan, deposit, wire or trade is not pending
//
// SERVICE_UNAVAILABLE (503) is returned while maintenance mode is on.
package errors
