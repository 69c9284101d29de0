package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/config"
	"github.com/ledgerline/ledgerline/internal/pkg/database"
	"github.com/ledgerline/ledgerline/internal/service"
	"github.com/ledgerline/ledgerline/internal/worker"
)

const settingsCacheTTL = 5 * time.Minute

// Services holds all service instances
type Services struct {
	Audit        *service.AuditService
	Settings     *service.SettingsService
	Realtime     *service.RealtimeService
	Notification *service.NotificationService
	Pricing      *service.PricingService
	Auth         *service.AuthService
	Account      *service.AccountService
	Loan         *service.LoanService
	Crypto       *service.CryptoService
	Deposit      *service.DepositService
	Wire         *service.WireService
	Ticket       *service.TicketService
	Admin        *service.AdminService
}

// initServices initializes all services
func initServices(cfg *config.Config, logger *zap.Logger, dbs *Databases, repos *Repositories, images service.ImageStore) *Services {
	svcs := &Services{}
	tx := dbs.Postgres

	svcs.Audit = service.NewAuditService(repos.Audit)
	svcs.Settings = service.NewSettingsService(
		repos.Settings,
		database.NewCache(dbs.Redis, "settings", settingsCacheTTL),
		svcs.Audit,
		logger,
	)
	svcs.Realtime = service.NewRealtimeService()
	svcs.Notification = service.NewNotificationService(
		svcs.Realtime,
		worker.NewEnqueuer(dbs.AsynqClient),
		repos.Users,
		logger,
	)
	svcs.Pricing = service.NewPricingService(
		cfg.Pricing,
		database.NewCache(dbs.Redis, "prices", cfg.Pricing.CacheTTL),
		svcs.Settings,
		logger,
	)

	svcs.Auth = service.NewAuthService(cfg.JWT, tx, repos.Users, repos.Accounts, svcs.Settings, svcs.Audit, logger)
	svcs.Account = service.NewAccountService(tx, repos.Accounts, svcs.Notification, svcs.Audit, logger)
	svcs.Loan = service.NewLoanService(
		tx,
		repos.Loans,
		repos.Accounts,
		svcs.Settings,
		svcs.Notification,
		svcs.Audit,
		service.SystemRand,
		logger,
	)
	svcs.Crypto = service.NewCryptoService(
		tx,
		repos.Crypto,
		repos.Accounts,
		svcs.Pricing,
		svcs.Settings,
		svcs.Notification,
		svcs.Audit,
		logger,
	)
	svcs.Deposit = service.NewDepositService(
		tx,
		repos.Deposits,
		repos.Accounts,
		images,
		svcs.Settings,
		svcs.Notification,
		svcs.Audit,
		logger,
	)
	svcs.Wire = service.NewWireService(
		tx,
		repos.Wires,
		repos.Accounts,
		svcs.Settings,
		svcs.Notification,
		svcs.Audit,
		logger,
	)
	svcs.Ticket = service.NewTicketService(tx, repos.Tickets, repos.Users, svcs.Notification, svcs.Audit, logger)

	sources := service.DashboardSources{
		Loans:    repos.Loans,
		Deposits: repos.Deposits,
		Wires:    repos.Wires,
		Crypto:   repos.Crypto,
		Tickets:  repos.Tickets,
		Ledger:   repos.Accounts,
	}
	if repos.LedgerEvents != nil {
		sources.Analytics = repos.LedgerEvents
	}
	svcs.Admin = service.NewAdminService(repos.Users, sources, svcs.Audit, logger)

	return svcs
}
