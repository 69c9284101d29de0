package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
	"github.com/ledgerline/ledgerline/internal/pkg/id"
	"github.com/ledgerline/ledgerline/internal/pkg/metrics"
)

const wireReferenceAttempts = 3

// WireRepository defines wire transfer repository operations
type WireRepository interface {
	Create(ctx context.Context, w *domain.WireTransfer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WireTransfer, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.WireTransfer, error)
	SumSince(ctx context.Context, userID uuid.UUID, since time.Time) (decimal.Decimal, error)
	UpdateStatus(ctx context.Context, w *domain.WireTransfer) error
	List(ctx context.Context, filter domain.WireFilter, limit, offset int) ([]domain.WireTransfer, int, error)
}

// WireService implements outgoing wire transfers
type WireService struct {
	tx        Transactor
	repo      WireRepository
	accounts  AccountStore
	settings  Settings
	notifier  Notifier
	audit     AuditRecorder
	logger    *zap.Logger
	now       Clock
	reference func(time.Time) string
}

// NewWireService creates a new wire service
func NewWireService(
	tx Transactor,
	repo WireRepository,
	accounts AccountStore,
	settings Settings,
	notifier Notifier,
	audit AuditRecorder,
	logger *zap.Logger,
) *WireService {
	return &WireService{
		tx:        tx,
		repo:      repo,
		accounts:  accounts,
		settings:  settings,
		notifier:  notifier,
		audit:     audit,
		logger:    logger,
		now:       utcNow,
		reference: id.NewWireReference,
	}
}

func normalizeWire(in *domain.WireInput) error {
	in.BeneficiaryName = strings.TrimSpace(in.BeneficiaryName)
	in.BankName = strings.TrimSpace(in.BankName)
	in.BeneficiaryAccount = strings.TrimSpace(in.BeneficiaryAccount)
	in.RoutingNumber = strings.TrimSpace(in.RoutingNumber)
	in.SwiftCode = strings.ToUpper(strings.TrimSpace(in.SwiftCode))
	in.Memo = strings.TrimSpace(in.Memo)

	if !in.Type.IsValid() {
		return apperrors.Validation("type must be domestic or international")
	}
	if in.BeneficiaryName == "" || in.BankName == "" || in.BeneficiaryAccount == "" {
		return apperrors.Validation("beneficiary name, bank name and account number are required")
	}
	switch in.Type {
	case domain.WireTypeDomestic:
		if !domain.ValidABARouting(in.RoutingNumber) {
			return apperrors.Validation("routingNumber is not a valid ABA routing number")
		}
		in.SwiftCode = ""
	case domain.WireTypeInternational:
		if !domain.ValidSWIFT(in.SwiftCode) {
			return apperrors.Validation("swiftCode is not a valid SWIFT/BIC code")
		}
		in.RoutingNumber = ""
	}
	return requireCents("amount", in.Amount)
}

func (s *WireService) fee(ctx context.Context, t domain.WireType) decimal.Decimal {
	if t == domain.WireTypeInternational {
		return s.settings.Decimal(ctx, domain.SettingWireFeeInternational)
	}
	return s.settings.Decimal(ctx, domain.SettingWireFeeDomestic)
}

// Create validates limits, debits amount and fee, and records a pending wire
func (s *WireService) Create(ctx context.Context, userID uuid.UUID, in *domain.WireInput) (*domain.WireTransfer, error) {
	if err := normalizeWire(in); err != nil {
		return nil, err
	}
	if minAmount := s.settings.Decimal(ctx, domain.SettingWireMinAmount); in.Amount.LessThan(minAmount) {
		return nil, apperrors.Validation(fmt.Sprintf("wires must be at least $%s", minAmount.StringFixed(2)))
	}
	if maxAmount := s.settings.Decimal(ctx, domain.SettingWireMaxAmount); maxAmount.IsPositive() && in.Amount.GreaterThan(maxAmount) {
		return nil, apperrors.LimitExceeded(fmt.Sprintf("wires are limited to $%s each", maxAmount.StringFixed(2)))
	}

	now := s.now()
	fee := s.fee(ctx, in.Type)
	var wire *domain.WireTransfer
	var err error
	for attempt := 0; attempt < wireReferenceAttempts; attempt++ {
		wire = &domain.WireTransfer{
			ID:                 uuid.New(),
			UserID:             userID,
			AccountID:          in.AccountID,
			Reference:          s.reference(now),
			Type:               in.Type,
			Amount:             in.Amount,
			Fee:                fee,
			BeneficiaryName:    in.BeneficiaryName,
			BankName:           in.BankName,
			BeneficiaryAccount: in.BeneficiaryAccount,
			RoutingNumber:      in.RoutingNumber,
			SwiftCode:          in.SwiftCode,
			Memo:               in.Memo,
			Status:             domain.WireStatusPending,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		err = s.submit(ctx, wire)
		if !apperrors.IsConflict(err) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordWire(string(wire.Type), string(wire.Status))
	s.notifier.Notify(ctx, userID, domain.EventTypeWireSubmitted, "Wire transfer submitted",
		fmt.Sprintf("Your %s wire %s of $%s to %s is pending.", wire.Type, wire.Reference, wire.Amount.StringFixed(2), wire.BeneficiaryName),
		wire.ID.String())
	return wire, nil
}

// submit holds the owner lock from the rolling limit check through the insert
func (s *WireService) submit(ctx context.Context, w *domain.WireTransfer) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := ownedAccount(ctx, s.accounts, w.UserID, w.AccountID); err != nil {
			return err
		}
		if err := s.accounts.LockOwner(ctx, w.UserID); err != nil {
			return err
		}
		if limit := s.settings.Decimal(ctx, domain.SettingWireDailyLimit); limit.IsPositive() {
			recent, err := s.repo.SumSince(ctx, w.UserID, w.CreatedAt.Add(-rollingLimitWindow))
			if err != nil {
				return err
			}
			if recent.Add(w.Amount).GreaterThan(limit) {
				return apperrors.LimitExceeded(fmt.Sprintf("wire would exceed the 24 hour limit of $%s", limit.StringFixed(2)))
			}
		}
		if _, err := s.accounts.Debit(ctx, &domain.Posting{
			AccountID:   w.AccountID,
			Amount:      w.Amount,
			Category:    domain.CategoryWireTransfer,
			ReferenceID: refID(w.ID),
			Description: fmt.Sprintf("Wire %s to %s", w.Reference, w.BeneficiaryName),
		}); err != nil {
			return err
		}
		if w.Fee.IsPositive() {
			if _, err := s.accounts.Debit(ctx, &domain.Posting{
				AccountID:   w.AccountID,
				Amount:      w.Fee,
				Category:    domain.CategoryWireFee,
				ReferenceID: refID(w.ID),
				Description: fmt.Sprintf("Wire fee %s", w.Reference),
			}); err != nil {
				return err
			}
		}
		return s.repo.Create(ctx, w)
	})
}

// Complete marks a pending wire as sent
func (s *WireService) Complete(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.WireTransfer, error) {
	wire, err := s.transition(ctx, id, func(ctx context.Context, w *domain.WireTransfer) error {
		now := s.now()
		w.Status = domain.WireStatusCompleted
		w.ProcessedBy = refID(actor.ID)
		w.ProcessedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.audit, s.logger, actor.AuditInput(domain.AuditActionWireCompleted, domain.AuditResourceWire,
		wire.ID.String(), "Completed wire "+wire.Reference))
	s.notifier.Notify(ctx, wire.UserID, domain.EventTypeWireCompleted, "Wire transfer sent",
		fmt.Sprintf("Your wire %s of $%s has been sent.", wire.Reference, wire.Amount.StringFixed(2)), wire.ID.String())
	return wire, nil
}

// Reject refunds a pending wire on behalf of an admin
func (s *WireService) Reject(ctx context.Context, actor domain.Actor, id uuid.UUID, reason string) (*domain.WireTransfer, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.Validation("reason is required")
	}
	wire, err := s.transition(ctx, id, func(ctx context.Context, w *domain.WireTransfer) error {
		now := s.now()
		w.Status = domain.WireStatusRejected
		w.RejectionReason = reason
		w.ProcessedBy = refID(actor.ID)
		w.ProcessedAt = &now
		return s.refund(ctx, w)
	})
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.audit, s.logger, actor.AuditInput(domain.AuditActionWireRejected, domain.AuditResourceWire,
		wire.ID.String(), fmt.Sprintf("Rejected wire %s: %s", wire.Reference, reason)))
	s.notifier.Notify(ctx, wire.UserID, domain.EventTypeWireRejected, "Wire transfer rejected",
		fmt.Sprintf("Your wire %s was rejected: %s. $%s has been refunded.", wire.Reference, reason, wire.Total().StringFixed(2)),
		wire.ID.String())
	return wire, nil
}

// Cancel refunds a customer's own pending wire
func (s *WireService) Cancel(ctx context.Context, userID, id uuid.UUID) (*domain.WireTransfer, error) {
	wire, err := s.transition(ctx, id, func(ctx context.Context, w *domain.WireTransfer) error {
		if w.UserID != userID {
			return apperrors.NotFound("wire transfer")
		}
		w.Status = domain.WireStatusCancelled
		return s.refund(ctx, w)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, wire.UserID, domain.EventTypeWireCancelled, "Wire transfer cancelled",
		fmt.Sprintf("Your wire %s was cancelled. $%s has been refunded.", wire.Reference, wire.Total().StringFixed(2)),
		wire.ID.String())
	return wire, nil
}

func (s *WireService) refund(ctx context.Context, w *domain.WireTransfer) error {
	_, err := s.accounts.Credit(ctx, &domain.Posting{
		AccountID:   w.AccountID,
		Amount:      w.Total(),
		Category:    domain.CategoryWireRefund,
		ReferenceID: refID(w.ID),
		Description: "Refund wire " + w.Reference,
	})
	return err
}

func (s *WireService) transition(ctx context.Context, id uuid.UUID, apply func(context.Context, *domain.WireTransfer) error) (*domain.WireTransfer, error) {
	var wire *domain.WireTransfer
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		wire, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if wire.Status != domain.WireStatusPending {
			return apperrors.InvalidState("wire transfer is already " + string(wire.Status))
		}
		if err := apply(ctx, wire); err != nil {
			return err
		}
		return s.repo.UpdateStatus(ctx, wire)
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordWire(string(wire.Type), string(wire.Status))
	return wire, nil
}

// Get returns a customer's own wire
func (s *WireService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.WireTransfer, error) {
	wire, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if wire.UserID != userID {
		return nil, apperrors.NotFound("wire transfer")
	}
	return wire, nil
}

// GetAny returns any wire
func (s *WireService) GetAny(ctx context.Context, id uuid.UUID) (*domain.WireTransfer, error) {
	return s.repo.GetByID(ctx, id)
}

// List lists wires matching filter
func (s *WireService) List(ctx context.Context, filter domain.WireFilter, limit, offset int) ([]domain.WireTransfer, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}
