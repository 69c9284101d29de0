package main

import (
	chrepo "github.com/ledgerline/ledgerline/internal/repository/clickhouse"
	pgrepo "github.com/ledgerline/ledgerline/internal/repository/postgres"
)

// Repositories holds all repository instances
type Repositories struct {
	Users    *pgrepo.UserRepository
	Accounts *pgrepo.AccountRepository
	Loans    *pgrepo.LoanRepository
	Crypto   *pgrepo.CryptoRepository
	Deposits *pgrepo.DepositRepository
	Wires    *pgrepo.WireRepository
	Tickets  *pgrepo.TicketRepository
	Settings *pgrepo.SettingRepository
	Audit    *pgrepo.AuditRepository

	// LedgerEvents is nil when ClickHouse is disabled
	LedgerEvents *chrepo.LedgerEventRepository
}

// initRepositories initializes all repositories
func initRepositories(dbs *Databases) *Repositories {
	repos := &Repositories{
		Users:    pgrepo.NewUserRepository(dbs.Postgres),
		Accounts: pgrepo.NewAccountRepository(dbs.Postgres),
		Loans:    pgrepo.NewLoanRepository(dbs.Postgres),
		Crypto:   pgrepo.NewCryptoRepository(dbs.Postgres),
		Deposits: pgrepo.NewDepositRepository(dbs.Postgres),
		Wires:    pgrepo.NewWireRepository(dbs.Postgres),
		Tickets:  pgrepo.NewTicketRepository(dbs.Postgres),
		Settings: pgrepo.NewSettingRepository(dbs.Postgres),
		Audit:    pgrepo.NewAuditRepository(dbs.SQLX),
	}
	if dbs.ClickHouse != nil {
		repos.LedgerEvents = chrepo.NewLedgerEventRepository(dbs.ClickHouse)
	}
	return repos
}
