package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
)

const (
	defaultDashboardDays = 14
	maxDashboardDays     = 90

	VolumeSourceClickHouse = "clickhouse"
	VolumeSourcePostgres   = "postgres"
)

// AdminUserRepository defines the user operations of the admin console
type AdminUserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context, filter domain.UserFilter, limit, offset int) ([]domain.User, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) error
	UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) error
	CountByRole(ctx context.Context, role domain.Role) (int, error)
	DeleteUserSessions(ctx context.Context, userID uuid.UUID) error
}

// VolumeReader aggregates ledger activity per day
type VolumeReader interface {
	DailyVolumes(ctx context.Context, since time.Time) ([]domain.DailyVolume, error)
}

// BalanceReader sums customer balances
type BalanceReader interface {
	VolumeReader
	TotalBalance(ctx context.Context) (decimal.Decimal, error)
}

// LoanCounter counts loans per status
type LoanCounter interface {
	CountByStatus(ctx context.Context) (map[domain.LoanStatus]int, int, error)
}

// PendingCounter counts items awaiting staff action
type PendingCounter interface {
	CountPending(ctx context.Context) (int, error)
}

// OpenCounter counts unresolved tickets
type OpenCounter interface {
	CountOpen(ctx context.Context) (int, error)
}

// DashboardSources holds the read models behind the admin dashboard
type DashboardSources struct {
	Loans    LoanCounter
	Deposits PendingCounter
	Wires    PendingCounter
	Crypto   PendingCounter
	Tickets  OpenCounter
	Ledger   BalanceReader
	// Analytics is optional; without it volumes come from the ledger
	Analytics VolumeReader
}

// AdminService implements the admin console user management and dashboard
type AdminService struct {
	users   AdminUserRepository
	sources DashboardSources
	audit   AuditRecorder
	logger  *zap.Logger
	now     Clock
}

// NewAdminService creates a new admin service
func NewAdminService(users AdminUserRepository, sources DashboardSources, audit AuditRecorder, logger *zap.Logger) *AdminService {
	return &AdminService{
		users:   users,
		sources: sources,
		audit:   audit,
		logger:  logger,
		now:     utcNow,
	}
}

// ListUsers lists users matching filter
func (s *AdminService) ListUsers(ctx context.Context, filter domain.UserFilter, limit, offset int) ([]domain.User, int, error) {
	return s.users.List(ctx, filter, limit, offset)
}

// GetUser returns any user
func (s *AdminService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// SetUserStatus suspends or reactivates a user. Suspending signs the user out.
func (s *AdminService) SetUserStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, status domain.UserStatus) (*domain.User, error) {
	if !status.IsValid() {
		return nil, apperrors.Validation("status must be active or suspended")
	}
	if id == actor.ID {
		return nil, apperrors.Forbidden("you cannot change your own status")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Status == status {
		return user, nil
	}

	if err := s.users.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	if status == domain.UserStatusSuspended {
		if err := s.users.DeleteUserSessions(ctx, id); err != nil {
			s.logger.Warn("failed to revoke sessions of suspended user", zap.String("user_id", id.String()), zap.Error(err))
		}
	}

	input := actor.AuditInput(domain.AuditActionUserStatusChanged, domain.AuditResourceUser,
		id.String(), user.Email+" is now "+string(status))
	input.Metadata = map[string]any{"from": user.Status, "to": status}
	recordAudit(ctx, s.audit, s.logger, input)

	user.Status = status
	return user, nil
}

// SetUserRole changes a user's role. The last admin cannot be demoted.
func (s *AdminService) SetUserRole(ctx context.Context, actor domain.Actor, id uuid.UUID, role domain.Role) (*domain.User, error) {
	if !role.IsValid() {
		return nil, apperrors.Validation("role must be customer or admin")
	}
	if id == actor.ID {
		return nil, apperrors.Forbidden("you cannot change your own role")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	if user.Role == domain.RoleAdmin {
		admins, err := s.users.CountByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return nil, err
		}
		if admins <= 1 {
			return nil, apperrors.InvalidState("cannot demote the last admin")
		}
	}

	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}

	input := actor.AuditInput(domain.AuditActionUserRoleChanged, domain.AuditResourceUser,
		id.String(), user.Email+" is now "+string(role))
	input.Metadata = map[string]any{"from": user.Role, "to": role}
	recordAudit(ctx, s.audit, s.logger, input)

	user.Role = role
	return user, nil
}

// Dashboard builds the admin overview with daily volumes for the last days days
func (s *AdminService) Dashboard(ctx context.Context, days int) (*domain.Dashboard, error) {
	if days <= 0 {
		days = defaultDashboardDays
	}
	if days > maxDashboardDays {
		days = maxDashboardDays
	}

	var d domain.Dashboard
	var err error

	loans, overdue, err := s.sources.Loans.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	d.Counts.PendingLoans = loans[domain.LoanStatusApproved]
	d.Counts.ActiveLoans = loans[domain.LoanStatusActive]
	d.Counts.OverdueLoans = overdue

	if d.Counts.PendingDeposits, err = s.sources.Deposits.CountPending(ctx); err != nil {
		return nil, err
	}
	if d.Counts.PendingWires, err = s.sources.Wires.CountPending(ctx); err != nil {
		return nil, err
	}
	if d.Counts.PendingCrypto, err = s.sources.Crypto.CountPending(ctx); err != nil {
		return nil, err
	}
	if d.Counts.OpenTickets, err = s.sources.Tickets.CountOpen(ctx); err != nil {
		return nil, err
	}
	if d.Counts.Customers, err = s.users.CountByRole(ctx, domain.RoleCustomer); err != nil {
		return nil, err
	}
	if d.TotalBalances, err = s.sources.Ledger.TotalBalance(ctx); err != nil {
		return nil, err
	}

	now := s.now()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))
	d.DailyVolumes, d.VolumeSource, err = s.volumes(ctx, since)
	if err != nil {
		return nil, err
	}
	if d.DailyVolumes == nil {
		d.DailyVolumes = []domain.DailyVolume{}
	}
	return &d, nil
}

func (s *AdminService) volumes(ctx context.Context, since time.Time) ([]domain.DailyVolume, string, error) {
	if s.sources.Analytics != nil {
		v, err := s.sources.Analytics.DailyVolumes(ctx, since)
		if err == nil {
			return v, VolumeSourceClickHouse, nil
		}
		s.logger.Warn("analytics volumes unavailable, falling back to ledger", zap.Error(err))
	}
	v, err := s.sources.Ledger.DailyVolumes(ctx, since)
	return v, VolumeSourcePostgres, err
}
