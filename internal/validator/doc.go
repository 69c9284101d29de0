// Package validator provides struct validation for Ledgerline request bodies.
//
// It wraps go-playground/validator with human-readable messages and three
// banking tags:
//   - decimal_gt0: a positive decimal amount with at most two places
//   - aba_routing: a 9 digit ABA routing number with a valid checksum
//   - swift_bic: an 8 or 11 character SWIFT/BIC code
//
// Use validator.Validate() directly or through dto.ParseAndValidate().
package validator
