package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
	"github.com/ledgerline/ledgerline/internal/pkg/logger"
	"github.com/ledgerline/ledgerline/internal/pkg/pagination"
)

// AccountRepository defines account and ledger repository operations
type AccountRepository interface {
	AccountStore
	Create(ctx context.Context, a *domain.Account) error
	NumberExists(ctx context.Context, number string) (bool, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) error
	ListEntries(ctx context.Context, accountID uuid.UUID, beforeSeq int64, limit int) ([]domain.LedgerEntry, error)
}

// AccountService exposes accounts and their ledgers
type AccountService struct {
	tx       Transactor
	repo     AccountRepository
	notifier Notifier
	audit    AuditRecorder
	logger   *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(tx Transactor, repo AccountRepository, notifier Notifier, audit AuditRecorder, logger *zap.Logger) *AccountService {
	return &AccountService{
		tx:       tx,
		repo:     repo,
		notifier: notifier,
		audit:    audit,
		logger:   logger,
	}
}

// List returns a user's accounts
func (s *AccountService) List(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	return s.repo.ListByUserID(ctx, userID)
}

// Get returns a user's own account
func (s *AccountService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Account, error) {
	return ownedAccount(ctx, s.repo, userID, id)
}

// GetAny returns any account
func (s *AccountService) GetAny(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.repo.GetByID(ctx, id)
}

// Entries returns a page of an account's ledger, newest first.
// A nil userID skips the ownership check.
func (s *AccountService) Entries(ctx context.Context, userID *uuid.UUID, accountID uuid.UUID, cursor string, limit int) (*domain.LedgerEntryList, error) {
	if userID != nil {
		if _, err := ownedAccount(ctx, s.repo, *userID, accountID); err != nil {
			return nil, err
		}
	}

	cur, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	var before int64
	if cur != nil {
		before = cur.Seq
	}

	limit = pagination.ClampLimit(limit)
	entries, err := s.repo.ListEntries(ctx, accountID, before, limit+1)
	if err != nil {
		return nil, err
	}

	entries, next, more := pagination.Trim(entries, limit, func(e domain.LedgerEntry) int64 { return e.Seq })
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	return &domain.LedgerEntryList{Entries: entries, NextCursor: next, HasMore: more}, nil
}

// Adjust posts a manual credit or debit on behalf of an admin
func (s *AccountService) Adjust(ctx context.Context, actor domain.Actor, accountID uuid.UUID, in *domain.AdjustmentInput) (*domain.LedgerEntry, error) {
	if !in.Direction.IsValid() {
		return nil, apperrors.Validation("direction must be credit or debit")
	}
	if err := requireCents("amount", in.Amount); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, apperrors.Validation("reason is required")
	}

	posting := &domain.Posting{
		AccountID:   accountID,
		Amount:      in.Amount,
		Category:    domain.CategoryAdjustment,
		Description: reason,
	}

	var entry *domain.LedgerEntry
	var acct *domain.Account
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		acct, err = s.repo.GetByID(ctx, accountID)
		if err != nil {
			return err
		}
		if in.Direction == domain.DirectionCredit {
			entry, err = s.repo.Credit(ctx, posting)
		} else {
			entry, err = s.repo.Debit(ctx, posting)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	input := actor.AuditInput(domain.AuditActionAccountAdjusted, domain.AuditResourceAccount,
		accountID.String(), reason)
	input.Metadata = map[string]any{
		"direction":     in.Direction,
		"amount":        in.Amount.StringFixed(2),
		"balance_after": entry.BalanceAfter.StringFixed(2),
	}
	recordAudit(ctx, s.audit, s.logger, input)
	s.logger.Info("manual adjustment posted",
		logger.AccountNumber(acct.Number),
		zap.String("direction", string(in.Direction)),
		logger.Amount("amount", in.Amount),
		zap.String("actor", actor.Email),
	)

	s.notifier.Notify(ctx, acct.UserID, domain.EventTypeAccountAdjusted, "Account adjusted",
		adjustmentMessage(acct, in.Direction, in.Amount, reason), accountID.String())
	return entry, nil
}

func adjustmentMessage(acct *domain.Account, dir domain.Direction, amount decimal.Decimal, reason string) string {
	verb := "credited"
	if dir == domain.DirectionDebit {
		verb = "debited"
	}
	return "Account " + acct.Number + " was " + verb + " $" + amount.StringFixed(2) + ": " + reason
}

// SetStatus freezes or unfreezes an account
func (s *AccountService) SetStatus(ctx context.Context, actor domain.Actor, accountID uuid.UUID, status domain.AccountStatus) (*domain.Account, error) {
	if !status.IsValid() {
		return nil, apperrors.Validation("status must be active or frozen")
	}
	acct, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct.Status == status {
		return acct, nil
	}
	if err := s.repo.SetStatus(ctx, accountID, status); err != nil {
		return nil, err
	}
	acct.Status = status

	action := domain.AuditActionAccountUnfrozen
	if status == domain.AccountStatusFrozen {
		action = domain.AuditActionAccountFrozen
	}
	recordAudit(ctx, s.audit, s.logger, actor.AuditInput(action, domain.AuditResourceAccount,
		accountID.String(), "Account "+acct.Number+" is now "+string(status)))
	s.notifier.Notify(ctx, acct.UserID, domain.EventTypeAccountStatus, "Account status changed",
		"Account "+acct.Number+" is now "+string(status)+".", accountID.String())
	return acct, nil
}
