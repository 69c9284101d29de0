package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/domain"
	"github.com/ledgerline/ledgerline/internal/service"
)

// AuthService is the auth surface used by AuthHandler
type AuthService interface {
	Register(ctx context.Context, input *domain.RegisterInput, actor domain.Actor) (*domain.AuthResult, error)
	Login(ctx context.Context, input *domain.LoginInput) (*domain.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string, actor domain.Actor) (*domain.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	ChangePassword(ctx context.Context, actor domain.Actor, oldPassword, newPassword string) error
}

// AccountService is the account surface used by AccountsHandler and AdminHandler
type AccountService interface {
	List(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.Account, error)
	GetAny(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	Entries(ctx context.Context, userID *uuid.UUID, accountID uuid.UUID, cursor string, limit int) (*domain.LedgerEntryList, error)
	Adjust(ctx context.Context, actor domain.Actor, accountID uuid.UUID, in *domain.AdjustmentInput) (*domain.LedgerEntry, error)
	SetStatus(ctx context.Context, actor domain.Actor, accountID uuid.UUID, status domain.AccountStatus) (*domain.Account, error)
}

// LoanService is the loan surface used by LoansHandler
type LoanService interface {
	Apply(ctx context.Context, userID uuid.UUID, in *domain.LoanApplication) (*domain.Loan, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.Loan, error)
	GetAny(ctx context.Context, id uuid.UUID) (*domain.Loan, error)
	List(ctx context.Context, filter domain.LoanFilter, limit, offset int) ([]domain.Loan, int, error)
	Review(ctx context.Context, actor domain.Actor, id uuid.UUID, in *domain.LoanReviewInput) (*domain.Loan, error)
	Disburse(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Loan, error)
	Decline(ctx context.Context, userID, id uuid.UUID) (*domain.Loan, error)
	Repay(ctx context.Context, userID, id uuid.UUID, amount *decimal.Decimal) (*domain.Loan, error)
}

// CryptoService is the crypto surface used by CryptoHandler
type CryptoService interface {
	Assets(ctx context.Context) []string
	Buy(ctx context.Context, userID uuid.UUID, in *domain.BuyInput) (*domain.CryptoTransaction, error)
	Sell(ctx context.Context, userID uuid.UUID, in *domain.SellInput) (*domain.CryptoTransaction, error)
	Settle(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.CryptoTransaction, error)
	Reject(ctx context.Context, actor domain.Actor, id uuid.UUID, reason string) (*domain.CryptoTransaction, error)
	Cancel(ctx context.Context, userID, id uuid.UUID) (*domain.CryptoTransaction, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.CryptoTransaction, error)
	ListTransactions(ctx context.Context, filter domain.CryptoFilter, limit, offset int) ([]domain.CryptoTransaction, int, error)
	Portfolio(ctx context.Context, userID uuid.UUID) (*domain.Portfolio, error)
}

// QuoteService prices a single asset
type QuoteService interface {
	Quote(ctx context.Context, asset string) (*domain.Quote, error)
}

// DepositService is the mobile deposit surface used by DepositsHandler
type DepositService interface {
	Submit(ctx context.Context, userID uuid.UUID, in *domain.DepositInput) (*domain.MobileDeposit, error)
	Approve(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.MobileDeposit, error)
	Reject(ctx context.Context, actor domain.Actor, id uuid.UUID, reason string) (*domain.MobileDeposit, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.MobileDeposit, error)
	GetAny(ctx context.Context, id uuid.UUID) (*domain.MobileDeposit, error)
	List(ctx context.Context, filter domain.DepositFilter, limit, offset int) ([]domain.MobileDeposit, int, error)
	Images(ctx context.Context, id uuid.UUID) (*domain.DepositImages, error)
}

// WireService is the wire transfer surface used by WiresHandler
type WireService interface {
	Create(ctx context.Context, userID uuid.UUID, in *domain.WireInput) (*domain.WireTransfer, error)
	Complete(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.WireTransfer, error)
	Reject(ctx context.Context, actor domain.Actor, id uuid.UUID, reason string) (*domain.WireTransfer, error)
	Cancel(ctx context.Context, userID, id uuid.UUID) (*domain.WireTransfer, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.WireTransfer, error)
	GetAny(ctx context.Context, id uuid.UUID) (*domain.WireTransfer, error)
	List(ctx context.Context, filter domain.WireFilter, limit, offset int) ([]domain.WireTransfer, int, error)
}

// TicketService is the support ticket surface used by TicketsHandler
type TicketService interface {
	Create(ctx context.Context, userID uuid.UUID, in *domain.TicketInput) (*domain.Ticket, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.Ticket, error)
	GetAny(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	Reply(ctx context.Context, userID, id uuid.UUID, body string) (*domain.TicketMessage, error)
	AdminReply(ctx context.Context, actor domain.Actor, id uuid.UUID, body string) (*domain.TicketMessage, error)
	Assign(ctx context.Context, actor domain.Actor, id uuid.UUID, assignee *uuid.UUID) (*domain.Ticket, error)
	SetStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, status domain.TicketStatus) (*domain.Ticket, error)
	List(ctx context.Context, filter domain.TicketFilter, limit, offset int) ([]domain.Ticket, int, error)
}

// SettingsService is the settings surface used by SettingsHandler
type SettingsService interface {
	List(ctx context.Context) ([]domain.Setting, error)
	Get(ctx context.Context, key string) (*domain.Setting, error)
	Update(ctx context.Context, actor domain.Actor, key, value string) (*domain.Setting, error)
}

// AdminService is the user management and dashboard surface used by AdminHandler
type AdminService interface {
	ListUsers(ctx context.Context, filter domain.UserFilter, limit, offset int) ([]domain.User, int, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	SetUserStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, status domain.UserStatus) (*domain.User, error)
	SetUserRole(ctx context.Context, actor domain.Actor, id uuid.UUID, role domain.Role) (*domain.User, error)
	Dashboard(ctx context.Context, days int) (*domain.Dashboard, error)
}

// AuditService lists audit logs
type AuditService interface {
	List(ctx context.Context, filter *domain.AuditLogFilter) (*domain.AuditLogList, error)
}

// EventStream is the realtime surface used by EventsHandler
type EventStream interface {
	Subscribe(ctx context.Context, userID uuid.UUID) *service.Subscriber
	Unsubscribe(id string)
	SubscriberCount(userID uuid.UUID) int
}

var (
	_ AuthService     = (*service.AuthService)(nil)
	_ AccountService  = (*service.AccountService)(nil)
	_ LoanService     = (*service.LoanService)(nil)
	_ CryptoService   = (*service.CryptoService)(nil)
	_ QuoteService    = (*service.PricingService)(nil)
	_ DepositService  = (*service.DepositService)(nil)
	_ WireService     = (*service.WireService)(nil)
	_ TicketService   = (*service.TicketService)(nil)
	_ SettingsService = (*service.SettingsService)(nil)
	_ AdminService    = (*service.AdminService)(nil)
	_ AuditService    = (*service.AuditService)(nil)
	_ EventStream     = (*service.RealtimeService)(nil)
)
