// Package id provides identifier generation for Ledgerline.
//
// This package generates:
//   - UUID v4 entity identifiers
//   - 10 digit customer account numbers
//   - wire references (WT-YYYYMMDD-XXXXXX)
//   - opaque refresh tokens and their storage digests
//
// All functions are safe for concurrent use.
package id
