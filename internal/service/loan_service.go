package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
	"github.com/ledgerline/ledgerline/internal/pkg/logger"
	"github.com/ledgerline/ledgerline/internal/pkg/metrics"
)

const overdueScanBatch = 500

// LoanRepository defines loan repository operations
type LoanRepository interface {
	Create(ctx context.Context, loan *domain.Loan) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error)
	Update(ctx context.Context, loan *domain.Loan) error
	List(ctx context.Context, filter domain.LoanFilter, limit, offset int) ([]domain.Loan, int, error)
	ListDueBefore(ctx context.Context, t time.Time, limit int) ([]domain.Loan, error)
	MarkOverdue(ctx context.Context, id uuid.UUID) (bool, error)
}

// LoanService implements the loan application, decision and servicing workflow
type LoanService struct {
	tx       Transactor
	loans    LoanRepository
	accounts AccountStore
	settings Settings
	notifier Notifier
	audit    AuditRecorder
	rng      RandSource
	logger   *zap.Logger
	now      Clock
}

// NewLoanService creates a new loan service
func NewLoanService(
	tx Transactor,
	loans LoanRepository,
	accounts AccountStore,
	settings Settings,
	notifier Notifier,
	audit AuditRecorder,
	rng RandSource,
	logger *zap.Logger,
) *LoanService {
	return &LoanService{
		tx:       tx,
		loans:    loans,
		accounts: accounts,
		settings: settings,
		notifier: notifier,
		audit:    audit,
		rng:      rng,
		logger:   logger,
		now:      utcNow,
	}
}

func (s *LoanService) aprFor(ctx context.Context, band CreditBand) decimal.Decimal {
	apr := s.settings.Decimal(ctx, domain.SettingLoanAPRPrefix+string(band.Band))
	if apr.IsZero() {
		return band.BaseAPR
	}
	return apr
}

func validateApplication(in *domain.LoanApplication) error {
	if err := requireCents("amount", in.Amount); err != nil {
		return err
	}
	if in.Amount.LessThan(domain.MinLoanAmount) || in.Amount.GreaterThan(domain.MaxLoanAmount) {
		return apperrors.Validation(fmt.Sprintf("amount must be between %s and %s", domain.MinLoanAmount, domain.MaxLoanAmount))
	}
	if !domain.IsValidLoanTerm(in.TermMonths) {
		return apperrors.Validation("termMonths must be one of 6, 12, 24, 36, 48, 60")
	}
	if in.CreditScore < domain.MinCreditScore || in.CreditScore > domain.MaxCreditScore {
		return apperrors.Validation(fmt.Sprintf("creditScore must be between %d and %d", domain.MinCreditScore, domain.MaxCreditScore))
	}
	if in.MonthlyIncome != nil && in.MonthlyIncome.IsNegative() {
		return apperrors.Validation("monthlyIncome must not be negative")
	}
	return nil
}

// Apply submits an application and decides it immediately
func (s *LoanService) Apply(ctx context.Context, userID uuid.UUID, in *domain.LoanApplication) (*domain.Loan, error) {
	if err := validateApplication(in); err != nil {
		return nil, err
	}
	acct, err := ownedAccount(ctx, s.accounts, userID, in.AccountID)
	if err != nil {
		return nil, err
	}
	if acct.Status != domain.AccountStatusActive {
		return nil, apperrors.InvalidState("account is frozen")
	}

	decision := DecideCredit(in.CreditScore, in.Amount, s.rng)
	now := s.now()
	loan := &domain.Loan{
		ID:              uuid.New(),
		UserID:          userID,
		AccountID:       in.AccountID,
		RequestedAmount: in.Amount,
		TermMonths:      in.TermMonths,
		Purpose:         in.Purpose,
		CreditScore:     in.CreditScore,
		CreditBand:      decision.Band.Band,
		MonthlyIncome:   in.MonthlyIncome,
		Status:          domain.LoanStatusRejected,
		DecisionReason:  decision.Reason,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if decision.Approved {
		loan.Status = domain.LoanStatusApproved
		loan.ApprovedAmount = decision.Amount
		loan.APR = s.aprFor(ctx, decision.Band)
		loan.ApplySchedule(Amortize(loan.ApprovedAmount, loan.APR, loan.TermMonths))
	}

	if err := s.loans.Create(ctx, loan); err != nil {
		return nil, err
	}

	metrics.RecordLoanDecision(string(loan.CreditBand), string(loan.Status))
	s.logger.Info("loan decided",
		zap.String("loan_id", loan.ID.String()),
		zap.String("band", string(loan.CreditBand)),
		zap.String("status", string(loan.Status)),
		logger.Amount("approved_amount", loan.ApprovedAmount),
	)

	if loan.Status == domain.LoanStatusApproved {
		s.notifier.Notify(ctx, userID, domain.EventTypeLoanDecided, "Loan approved",
			fmt.Sprintf("Your loan application was approved for $%s at %s%% APR.", loan.ApprovedAmount.StringFixed(2), loan.APR.String()),
			loan.ID.String())
	} else {
		s.notifier.Notify(ctx, userID, domain.EventTypeLoanDecided, "Loan application declined",
			"Your loan application was not approved.", loan.ID.String())
	}
	return loan, nil
}

// Get returns a customer's own loan
func (s *LoanService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Loan, error) {
	loan, err := s.loans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loan.UserID != userID {
		return nil, apperrors.NotFound("loan")
	}
	return loan, nil
}

// GetAny returns any loan
func (s *LoanService) GetAny(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	return s.loans.GetByID(ctx, id)
}

// List lists loans matching filter
func (s *LoanService) List(ctx context.Context, filter domain.LoanFilter, limit, offset int) ([]domain.Loan, int, error) {
	return s.loans.List(ctx, filter, limit, offset)
}

// Review lets an admin override a decision or its terms before disbursement
func (s *LoanService) Review(ctx context.Context, actor domain.Actor, id uuid.UUID, in *domain.LoanReviewInput) (*domain.Loan, error) {
	var loan *domain.Loan
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		loan, err = s.loans.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if loan.Status != domain.LoanStatusApproved && loan.Status != domain.LoanStatusRejected {
			return apperrors.InvalidState("only undisbursed decisions can be reviewed")
		}
		if err := applyReview(loan, in, s.aprFor(ctx, BandForScore(loan.CreditScore))); err != nil {
			return err
		}
		now := s.now()
		loan.ReviewedBy = refID(actor.ID)
		loan.ReviewedAt = &now
		return s.loans.Update(ctx, loan)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordLoanDecision(string(loan.CreditBand), "reviewed_"+string(loan.Status))
	recordAudit(ctx, s.audit, s.logger, actor.AuditInput(domain.AuditActionLoanReviewed, domain.AuditResourceLoan,
		loan.ID.String(), fmt.Sprintf("Reviewed loan: %s $%s at %s%% for %d months",
			loan.Status, loan.ApprovedAmount.StringFixed(2), loan.APR.String(), loan.TermMonths)))
	s.notifier.Notify(ctx, loan.UserID, domain.EventTypeLoanReviewed, "Loan updated",
		fmt.Sprintf("Your loan application is now %s.", loan.Status), loan.ID.String())
	return loan, nil
}

// applyReview overlays in onto loan. An approval without an amount or APR
// falls back to the requested amount and bandAPR.
func applyReview(loan *domain.Loan, in *domain.LoanReviewInput, bandAPR decimal.Decimal) error {
	if in.Status != nil {
		if *in.Status != domain.LoanStatusApproved && *in.Status != domain.LoanStatusRejected {
			return apperrors.Validation("status must be approved or rejected")
		}
		loan.Status = *in.Status
	}
	if in.TermMonths != nil {
		if !domain.IsValidLoanTerm(*in.TermMonths) {
			return apperrors.Validation("termMonths must be one of 6, 12, 24, 36, 48, 60")
		}
		loan.TermMonths = *in.TermMonths
	}
	if in.APR != nil {
		if in.APR.IsNegative() || in.APR.GreaterThan(hundred) {
			return apperrors.Validation("apr must be between 0 and 100")
		}
		loan.APR = *in.APR
	}
	if in.ApprovedAmount != nil {
		if err := requireCents("approvedAmount", *in.ApprovedAmount); err != nil {
			return err
		}
		if in.ApprovedAmount.LessThan(domain.MinLoanAmount) || in.ApprovedAmount.GreaterThan(domain.MaxLoanAmount) {
			return apperrors.Validation(fmt.Sprintf("approvedAmount must be between %s and %s", domain.MinLoanAmount, domain.MaxLoanAmount))
		}
		loan.ApprovedAmount = *in.ApprovedAmount
	}
	if in.Reason != "" {
		loan.DecisionReason = in.Reason
	}

	if loan.Status == domain.LoanStatusRejected {
		loan.ApprovedAmount = decimal.Zero
		loan.ApplySchedule(domain.Schedule{})
		return nil
	}
	if !loan.ApprovedAmount.IsPositive() {
		loan.ApprovedAmount = loan.RequestedAmount
	}
	if loan.APR.IsZero() && in.APR == nil {
		loan.APR = bandAPR
	}
	loan.ApplySchedule(Amortize(loan.ApprovedAmount, loan.APR, loan.TermMonths))
	return nil
}

// Disburse credits the approved amount and activates the loan
func (s *LoanService) Disburse(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Loan, error) {
	var loan *domain.Loan
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		loan, err = s.loans.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if loan.Status != domain.LoanStatusApproved {
			return apperrors.InvalidState("only approved loans can be disbursed")
		}

		if _, err := s.accounts.Credit(ctx, &domain.Posting{
			AccountID:   loan.AccountID,
			Amount:      loan.ApprovedAmount,
			Category:    domain.CategoryLoanDisbursement,
			ReferenceID: refID(loan.ID),
			Description: "Loan disbursement",
		}); err != nil {
			return err
		}

		now := s.now()
		due := now.AddDate(0, 1, 0)
		loan.Status = domain.LoanStatusActive
		loan.DisbursedAt = &now
		loan.NextPaymentDue = &due
		loan.RemainingBalance = loan.TotalPayable
		loan.PaymentsMade = 0
		loan.Overdue = false
		return s.loans.Update(ctx, loan)
	})
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.audit, s.logger, actor.AuditInput(domain.AuditActionLoanDisbursed, domain.AuditResourceLoan,
		loan.ID.String(), fmt.Sprintf("Disbursed $%s", loan.ApprovedAmount.StringFixed(2))))
	s.notifier.Notify(ctx, loan.UserID, domain.EventTypeLoanDisbursed, "Loan disbursed",
		fmt.Sprintf("$%s has been deposited to your account. Your first payment of $%s is due %s.",
			loan.ApprovedAmount.StringFixed(2), loan.MonthlyPayment.StringFixed(2), loan.NextPaymentDue.Format("Jan 2, 2006")),
		loan.ID.String())
	return loan, nil
}

// Decline lets a customer turn down an approved loan before disbursement
func (s *LoanService) Decline(ctx context.Context, userID, id uuid.UUID) (*domain.Loan, error) {
	var loan *domain.Loan
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		loan, err = s.loans.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if loan.UserID != userID {
			return apperrors.NotFound("loan")
		}
		if loan.Status != domain.LoanStatusApproved {
			return apperrors.InvalidState("only approved loans can be declined")
		}
		loan.Status = domain.LoanStatusDeclined
		return s.loans.Update(ctx, loan)
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// Repay debits a payment from the loan's account. A nil amount pays the
// monthly installment; any amount is capped at the remaining balance.
func (s *LoanService) Repay(ctx context.Context, userID, id uuid.UUID, amount *decimal.Decimal) (*domain.Loan, error) {
	if amount != nil {
		if err := requireCents("amount", *amount); err != nil {
			return nil, err
		}
	}

	var loan *domain.Loan
	var paid decimal.Decimal
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		loan, err = s.loans.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if loan.UserID != userID {
			return apperrors.NotFound("loan")
		}
		if loan.Status != domain.LoanStatusActive {
			return apperrors.InvalidState("only active loans can be repaid")
		}

		paid = loan.MonthlyPayment
		if amount != nil {
			paid = *amount
		}
		if paid.GreaterThan(loan.RemainingBalance) {
			paid = loan.RemainingBalance
		}
		if !paid.IsPositive() {
			return apperrors.InvalidState("loan has no balance due")
		}

		if _, err := s.accounts.Debit(ctx, &domain.Posting{
			AccountID:   loan.AccountID,
			Amount:      paid,
			Category:    domain.CategoryLoanRepayment,
			ReferenceID: refID(loan.ID),
			Description: "Loan repayment",
		}); err != nil {
			return err
		}

		now := s.now()
		loan.RemainingBalance = loan.RemainingBalance.Sub(paid)
		loan.PaymentsMade++
		if loan.RemainingBalance.IsZero() {
			loan.Status = domain.LoanStatusPaidOff
			loan.NextPaymentDue = nil
			loan.Overdue = false
		} else {
			next := now.AddDate(0, 1, 0)
			if loan.NextPaymentDue != nil {
				next = loan.NextPaymentDue.AddDate(0, 1, 0)
			}
			loan.NextPaymentDue = &next
			loan.Overdue = !next.After(now)
		}
		return s.loans.Update(ctx, loan)
	})
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("We received your payment of $%s. Remaining balance: $%s.", paid.StringFixed(2), loan.RemainingBalance.StringFixed(2))
	if loan.Status == domain.LoanStatusPaidOff {
		msg = fmt.Sprintf("We received your payment of $%s. Your loan is paid off.", paid.StringFixed(2))
	}
	s.notifier.Notify(ctx, loan.UserID, domain.EventTypeLoanRepaid, "Loan payment received", msg, loan.ID.String())
	return loan, nil
}

// ScanOverdue flags active loans whose next payment is past due and notifies their owners
func (s *LoanService) ScanOverdue(ctx context.Context) (int, error) {
	now := s.now()
	flagged := 0
	for {
		due, err := s.loans.ListDueBefore(ctx, now, overdueScanBatch)
		if err != nil {
			return flagged, fmt.Errorf("failed to list due loans: %w", err)
		}
		for _, loan := range due {
			changed, err := s.loans.MarkOverdue(ctx, loan.ID)
			if err != nil {
				return flagged, fmt.Errorf("failed to mark loan %s overdue: %w", loan.ID, err)
			}
			if !changed {
				continue
			}
			flagged++
			s.notifier.Notify(ctx, loan.UserID, domain.EventTypeLoanOverdue, "Loan payment overdue",
				fmt.Sprintf("Your loan payment of $%s was due %s.", loan.MonthlyPayment.StringFixed(2), loan.NextPaymentDue.Format("Jan 2, 2006")),
				loan.ID.String())
		}
		if len(due) < overdueScanBatch {
			return flagged, nil
		}
	}
}
