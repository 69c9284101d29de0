package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/ledgerline/ledgerline/internal/domain"
)

// MockAuthService mocks the auth service for testing.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, input *domain.RegisterInput, actor domain.Actor) (*domain.AuthResult, error) {
	args := m.Called(ctx, input, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, input *domain.LoginInput) (*domain.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthResult), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string, actor domain.Actor) (*domain.AuthResult, error) {
	args := m.Called(ctx, refreshToken, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockAuthService) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, actor domain.Actor, oldPassword, newPassword string) error {
	args := m.Called(ctx, actor, oldPassword, newPassword)
	return args.Error(0)
}

// MockAccountService mocks the account service for testing.
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) List(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Account, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAny(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) Entries(ctx context.Context, userID *uuid.UUID, accountID uuid.UUID, cursor string, limit int) (*domain.LedgerEntryList, error) {
	args := m.Called(ctx, userID, accountID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntryList), args.Error(1)
}

func (m *MockAccountService) Adjust(ctx context.Context, actor domain.Actor, accountID uuid.UUID, in *domain.AdjustmentInput) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, actor, accountID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockAccountService) SetStatus(ctx context.Context, actor domain.Actor, accountID uuid.UUID, status domain.AccountStatus) (*domain.Account, error) {
	args := m.Called(ctx, actor, accountID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

// MockLoanService mocks the loan service for testing.
type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) loan(args mock.Arguments) (*domain.Loan, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanService) Apply(ctx context.Context, userID uuid.UUID, in *domain.LoanApplication) (*domain.Loan, error) {
	return m.loan(m.Called(ctx, userID, in))
}

func (m *MockLoanService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Loan, error) {
	return m.loan(m.Called(ctx, userID, id))
}

func (m *MockLoanService) GetAny(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	return m.loan(m.Called(ctx, id))
}

func (m *MockLoanService) List(ctx context.Context, filter domain.LoanFilter, limit, offset int) ([]domain.Loan, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Loan), args.Int(1), args.Error(2)
}

func (m *MockLoanService) Review(ctx context.Context, actor domain.Actor, id uuid.UUID, in *domain.LoanReviewInput) (*domain.Loan, error) {
	return m.loan(m.Called(ctx, actor, id, in))
}

func (m *MockLoanService) Disburse(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Loan, error) {
	return m.loan(m.Called(ctx, actor, id))
}

func (m *MockLoanService) Decline(ctx context.Context, userID, id uuid.UUID) (*domain.Loan, error) {
	return m.loan(m.Called(ctx, userID, id))
}

func (m *MockLoanService) Repay(ctx context.Context, userID, id uuid.UUID, amount *decimal.Decimal) (*domain.Loan, error) {
	return m.loan(m.Called(ctx, userID, id, amount))
}

// MockWireService mocks the wire service for testing.
type MockWireService struct {
	mock.Mock
}

func (m *MockWireService) wire(args mock.Arguments) (*domain.WireTransfer, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WireTransfer), args.Error(1)
}

func (m *MockWireService) Create(ctx context.Context, userID uuid.UUID, in *domain.WireInput) (*domain.WireTransfer, error) {
	return m.wire(m.Called(ctx, userID, in))
}

func (m *MockWireService) Complete(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.WireTransfer, error) {
	return m.wire(m.Called(ctx, actor, id))
}

func (m *MockWireService) Reject(ctx context.Context, actor domain.Actor, id uuid.UUID, reason string) (*domain.WireTransfer, error) {
	return m.wire(m.Called(ctx, actor, id, reason))
}

func (m *MockWireService) Cancel(ctx context.Context, userID, id uuid.UUID) (*domain.WireTransfer, error) {
	return m.wire(m.Called(ctx, userID, id))
}

func (m *MockWireService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.WireTransfer, error) {
	return m.wire(m.Called(ctx, userID, id))
}

func (m *MockWireService) GetAny(ctx context.Context, id uuid.UUID) (*domain.WireTransfer, error) {
	return m.wire(m.Called(ctx, id))
}

func (m *MockWireService) List(ctx context.Context, filter domain.WireFilter, limit, offset int) ([]domain.WireTransfer, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.WireTransfer), args.Int(1), args.Error(2)
}

// MockDepositService mocks the deposit service for testing.
type MockDepositService struct {
	mock.Mock
}

func (m *MockDepositService) deposit(args mock.Arguments) (*domain.MobileDeposit, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MobileDeposit), args.Error(1)
}

func (m *MockDepositService) Submit(ctx context.Context, userID uuid.UUID, in *domain.DepositInput) (*domain.MobileDeposit, error) {
	return m.deposit(m.Called(ctx, userID, in))
}

func (m *MockDepositService) Approve(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.MobileDeposit, error) {
	return m.deposit(m.Called(ctx, actor, id))
}

func (m *MockDepositService) Reject(ctx context.Context, actor domain.Actor, id uuid.UUID, reason string) (*domain.MobileDeposit, error) {
	return m.deposit(m.Called(ctx, actor, id, reason))
}

func (m *MockDepositService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.MobileDeposit, error) {
	return m.deposit(m.Called(ctx, userID, id))
}

func (m *MockDepositService) GetAny(ctx context.Context, id uuid.UUID) (*domain.MobileDeposit, error) {
	return m.deposit(m.Called(ctx, id))
}

func (m *MockDepositService) List(ctx context.Context, filter domain.DepositFilter, limit, offset int) ([]domain.MobileDeposit, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.MobileDeposit), args.Int(1), args.Error(2)
}

func (m *MockDepositService) Images(ctx context.Context, id uuid.UUID) (*domain.DepositImages, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DepositImages), args.Error(1)
}

// MockAdminService mocks the admin service for testing.
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) ListUsers(ctx context.Context, filter domain.UserFilter, limit, offset int) ([]domain.User, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

func (m *MockAdminService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAdminService) SetUserStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, status domain.UserStatus) (*domain.User, error) {
	args := m.Called(ctx, actor, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAdminService) SetUserRole(ctx context.Context, actor domain.Actor, id uuid.UUID, role domain.Role) (*domain.User, error) {
	args := m.Called(ctx, actor, id, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAdminService) Dashboard(ctx context.Context, days int) (*domain.Dashboard, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dashboard), args.Error(1)
}

// MockSettingsService mocks the settings service for testing.
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) List(ctx context.Context) ([]domain.Setting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Setting), args.Error(1)
}

func (m *MockSettingsService) Get(ctx context.Context, key string) (*domain.Setting, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Setting), args.Error(1)
}

func (m *MockSettingsService) Update(ctx context.Context, actor domain.Actor, key, value string) (*domain.Setting, error) {
	args := m.Called(ctx, actor, key, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Setting), args.Error(1)
}

// MockTicketService mocks the ticket service for testing.
type MockTicketService struct {
	mock.Mock
}

func (m *MockTicketService) ticket(args mock.Arguments) (*domain.Ticket, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketService) message(args mock.Arguments) (*domain.TicketMessage, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TicketMessage), args.Error(1)
}

func (m *MockTicketService) Create(ctx context.Context, userID uuid.UUID, in *domain.TicketInput) (*domain.Ticket, error) {
	return m.ticket(m.Called(ctx, userID, in))
}

func (m *MockTicketService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Ticket, error) {
	return m.ticket(m.Called(ctx, userID, id))
}

func (m *MockTicketService) GetAny(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	return m.ticket(m.Called(ctx, id))
}

func (m *MockTicketService) Reply(ctx context.Context, userID, id uuid.UUID, body string) (*domain.TicketMessage, error) {
	return m.message(m.Called(ctx, userID, id, body))
}

func (m *MockTicketService) AdminReply(ctx context.Context, actor domain.Actor, id uuid.UUID, body string) (*domain.TicketMessage, error) {
	return m.message(m.Called(ctx, actor, id, body))
}

func (m *MockTicketService) Assign(ctx context.Context, actor domain.Actor, id uuid.UUID, assignee *uuid.UUID) (*domain.Ticket, error) {
	return m.ticket(m.Called(ctx, actor, id, assignee))
}

func (m *MockTicketService) SetStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, status domain.TicketStatus) (*domain.Ticket, error) {
	return m.ticket(m.Called(ctx, actor, id, status))
}

func (m *MockTicketService) List(ctx context.Context, filter domain.TicketFilter, limit, offset int) ([]domain.Ticket, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Ticket), args.Int(1), args.Error(2)
}
