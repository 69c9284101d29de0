package main

import (
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/handler"
)

// Handlers holds all HTTP handler instances
type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Accounts *handler.AccountsHandler
	Loans    *handler.LoansHandler
	Crypto   *handler.CryptoHandler
	Deposits *handler.DepositsHandler
	Wires    *handler.WiresHandler
	Tickets  *handler.TicketsHandler
	Settings *handler.SettingsHandler
	Admin    *handler.AdminHandler
	Audit    *handler.AuditHandler
	Events   *handler.EventsHandler
}

// initHandlers initializes all handlers
func initHandlers(logger *zap.Logger, svcs *Services, checks map[string]handler.Checker) *Handlers {
	return &Handlers{
		Health:   handler.NewHealthHandler(appVersion, checks),
		Auth:     handler.NewAuthHandler(svcs.Auth, logger),
		Accounts: handler.NewAccountsHandler(svcs.Account, logger),
		Loans:    handler.NewLoansHandler(svcs.Loan, logger),
		Crypto:   handler.NewCryptoHandler(svcs.Crypto, svcs.Pricing, logger),
		Deposits: handler.NewDepositsHandler(svcs.Deposit, logger),
		Wires:    handler.NewWiresHandler(svcs.Wire, logger),
		Tickets:  handler.NewTicketsHandler(svcs.Ticket, logger),
		Settings: handler.NewSettingsHandler(svcs.Settings, logger),
		Admin:    handler.NewAdminHandler(svcs.Admin, svcs.Account, logger),
		Audit:    handler.NewAuditHandler(svcs.Audit, logger),
		Events:   handler.NewEventsHandler(svcs.Realtime, logger),
	}
}
