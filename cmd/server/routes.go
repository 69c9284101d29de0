package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ledgerline/ledgerline/internal/middleware"
)

// registerRoutes registers all HTTP routes. Groups sharing the /v1 prefix
// are registered most specific first so their middleware does not stack.
func registerRoutes(app *fiber.App, deps *Dependencies) {
	h := deps.Handlers
	jwt := deps.AuthMiddleware.RequireJWT()

	// Probes and metrics (no auth required)
	h.Health.RegisterRoutes(app)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Auth routes
	auth := app.Group("/v1/auth", limiter(deps.AuthRateLimit)...)
	{
		auth.Post("/register", h.Auth.Register)
		auth.Post("/login", h.Auth.Login)
		auth.Post("/refresh", h.Auth.Refresh)
		auth.Post("/logout", h.Auth.Logout)
		auth.Get("/me", jwt, h.Auth.Me)
		auth.Post("/password", jwt, h.Auth.ChangePassword)
	}

	// Admin console (JWT with the admin role)
	admin := app.Group("/v1/admin", append([]fiber.Handler{jwt, deps.AuthMiddleware.RequireAdmin()}, limiter(deps.APIRateLimit)...)...)
	{
		admin.Get("/dashboard", h.Admin.Dashboard)

		// Users
		admin.Get("/users", h.Admin.ListUsers)
		admin.Get("/users/:id", h.Admin.GetUser)
		admin.Put("/users/:id/status", h.Admin.SetUserStatus)
		admin.Put("/users/:id/role", h.Admin.SetUserRole)

		// Accounts
		admin.Get("/accounts/:id", h.Admin.GetAccount)
		admin.Get("/accounts/:id/entries", h.Admin.ListEntries)
		admin.Post("/accounts/:id/adjustments", h.Admin.AdjustBalance)
		admin.Put("/accounts/:id/status", h.Admin.SetAccountStatus)

		// Loans
		admin.Get("/loans", h.Loans.AdminListLoans)
		admin.Get("/loans/:id", h.Loans.AdminGetLoan)
		admin.Post("/loans/:id/review", h.Loans.Review)
		admin.Post("/loans/:id/disburse", h.Loans.Disburse)

		// Crypto
		admin.Get("/crypto/transactions", h.Crypto.AdminListTransactions)
		admin.Post("/crypto/transactions/:id/settle", h.Crypto.Settle)
		admin.Post("/crypto/transactions/:id/reject", h.Crypto.Reject)

		// Mobile deposits
		admin.Get("/deposits", h.Deposits.AdminListDeposits)
		admin.Get("/deposits/:id", h.Deposits.AdminGetDeposit)
		admin.Get("/deposits/:id/images", h.Deposits.Images)
		admin.Post("/deposits/:id/approve", h.Deposits.Approve)
		admin.Post("/deposits/:id/reject", h.Deposits.Reject)

		// Wires
		admin.Get("/wires", h.Wires.AdminListWires)
		admin.Get("/wires/:id", h.Wires.AdminGetWire)
		admin.Post("/wires/:id/complete", h.Wires.CompleteWire)
		admin.Post("/wires/:id/reject", h.Wires.RejectWire)

		// Tickets
		admin.Get("/tickets", h.Tickets.AdminListTickets)
		admin.Get("/tickets/:id", h.Tickets.AdminGetTicket)
		admin.Post("/tickets/:id/messages", h.Tickets.AdminReply)
		admin.Put("/tickets/:id/assignee", h.Tickets.Assign)
		admin.Put("/tickets/:id/status", h.Tickets.SetStatus)

		// Settings
		admin.Get("/settings", h.Settings.ListSettings)
		admin.Get("/settings/:key", h.Settings.GetSetting)
		admin.Put("/settings/:key", h.Settings.UpdateSetting)

		// Audit logs
		admin.Get("/audit-logs", h.Audit.ListAuditLogs)

		// Realtime
		admin.Get("/events/subscribers", h.Events.GetSubscribers)
	}

	// Customer routes (JWT)
	customer := app.Group("/v1", append([]fiber.Handler{jwt, middleware.Maintenance(deps.Services.Settings)}, limiter(deps.APIRateLimit)...)...)
	{
		// Accounts
		customer.Get("/accounts", h.Accounts.ListAccounts)
		customer.Get("/accounts/:id", h.Accounts.GetAccount)
		customer.Get("/accounts/:id/entries", h.Accounts.ListEntries)

		// Loans
		customer.Post("/loans", h.Loans.Apply)
		customer.Get("/loans", h.Loans.ListLoans)
		customer.Get("/loans/:id", h.Loans.GetLoan)
		customer.Post("/loans/:id/decline", h.Loans.Decline)
		customer.Post("/loans/:id/repay", h.Loans.Repay)

		// Crypto
		customer.Get("/crypto/assets", h.Crypto.ListAssets)
		customer.Get("/crypto/quotes/:asset", h.Crypto.GetQuote)
		customer.Post("/crypto/buy", h.Crypto.Buy)
		customer.Post("/crypto/sell", h.Crypto.Sell)
		customer.Get("/crypto/portfolio", h.Crypto.Portfolio)
		customer.Get("/crypto/transactions", h.Crypto.ListTransactions)
		customer.Get("/crypto/transactions/:id", h.Crypto.GetTransaction)
		customer.Post("/crypto/transactions/:id/cancel", h.Crypto.Cancel)

		// Mobile deposits
		customer.Post("/deposits", h.Deposits.Submit)
		customer.Get("/deposits", h.Deposits.ListDeposits)
		customer.Get("/deposits/:id", h.Deposits.GetDeposit)

		// Wires
		customer.Post("/wires", h.Wires.CreateWire)
		customer.Get("/wires", h.Wires.ListWires)
		customer.Get("/wires/:id", h.Wires.GetWire)
		customer.Post("/wires/:id/cancel", h.Wires.CancelWire)

		// Tickets
		customer.Post("/tickets", h.Tickets.CreateTicket)
		customer.Get("/tickets", h.Tickets.ListTickets)
		customer.Get("/tickets/:id", h.Tickets.GetTicket)
		customer.Post("/tickets/:id/messages", h.Tickets.Reply)

		// Realtime
		customer.Get("/events", h.Events.StreamEvents)
	}
}

// limiter returns the handler chain for rl, or nothing when rate limiting is off
func limiter(rl *middleware.RateLimitMiddleware) []fiber.Handler {
	if rl == nil {
		return nil
	}
	return []fiber.Handler{rl.Handler()}
}
