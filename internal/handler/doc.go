// Package handler contains the HTTP request handlers of the Ledgerline API.
//
// Handlers parse and validate requests with the dto package, read the
// caller from the locals set by the auth middleware and call one service.
// Every error goes through respondError, which renders application errors
// with their own status and code and hides anything else behind a 500.
//
// # Route Organization
//
//   - /v1/auth/* - registration, login and token refresh (no auth required)
//   - /v1/* - customer routes (JWT)
//   - /v1/admin/* - admin console routes (JWT with the admin role)
//   - /health, /livez, /readyz, /version - probes
//
// Customer handlers always scope lookups to the calling user; the Admin*
// variants read any record.
package handler
