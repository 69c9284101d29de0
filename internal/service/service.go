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

// Transactor runs fn inside a database transaction carried by ctx
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AccountStore is the account surface needed by services that move money
type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	Credit(ctx context.Context, p *domain.Posting) (*domain.LedgerEntry, error)
	Debit(ctx context.Context, p *domain.Posting) (*domain.LedgerEntry, error)
	LockOwner(ctx context.Context, userID uuid.UUID) error
}

// Settings reads typed system settings
type Settings interface {
	Bool(ctx context.Context, key string) bool
	Int(ctx context.Context, key string) int
	Decimal(ctx context.Context, key string) decimal.Decimal
	Strings(ctx context.Context, key string) []string
}

// Notifier delivers a user-facing notification
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event domain.EventType, subject, message, resourceID string)
}

// AuditRecorder records admin and security events
type AuditRecorder interface {
	Log(ctx context.Context, input *domain.AuditLogInput) (*domain.AuditLog, error)
}

// Clock returns the current time
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// ownedAccount loads an account and hides accounts that belong to someone else
func ownedAccount(ctx context.Context, accounts AccountStore, userID, accountID uuid.UUID) (*domain.Account, error) {
	acct, err := accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct.UserID != userID {
		return nil, apperrors.NotFound("account")
	}
	return acct, nil
}

// requireCents validates a positive amount with at most two decimal places
func requireCents(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.Validation(field + " must be positive")
	}
	if !domain.IsCents(amount) {
		return apperrors.Validation(field + " must have at most 2 decimal places")
	}
	return nil
}

// recordAudit writes an audit entry. Failures are logged and never fail the caller.
func recordAudit(ctx context.Context, audit AuditRecorder, logger *zap.Logger, input domain.AuditLogInput) {
	if audit == nil {
		return
	}
	if _, err := audit.Log(ctx, &input); err != nil {
		logger.Error("failed to write audit log",
			zap.String("action", string(input.Action)),
			zap.String("resource_id", input.ResourceID),
			zap.Error(err),
		)
	}
}

func refID(id uuid.UUID) *uuid.UUID {
	return &id
}
