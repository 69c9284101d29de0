package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/domain"
	"github.com/ledgerline/ledgerline/internal/pkg/database"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
)

const loanColumns = `id, user_id, account_id, requested_amount, approved_amount, term_months, apr,
	purpose, credit_score, credit_band, monthly_income, monthly_payment, total_payable, total_interest,
	remaining_balance, payments_made, status, overdue, decision_reason, reviewed_by, reviewed_at,
	disbursed_at, next_payment_due, created_at, updated_at`

// LoanRepository handles loan data operations in PostgreSQL
type LoanRepository struct {
	db *database.PostgresDB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *database.PostgresDB) *LoanRepository {
	return &LoanRepository{db: db}
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var l domain.Loan
	var income decimal.NullDecimal
	err := row.Scan(
		&l.ID,
		&l.UserID,
		&l.AccountID,
		&l.RequestedAmount,
		&l.ApprovedAmount,
		&l.TermMonths,
		&l.APR,
		&l.Purpose,
		&l.CreditScore,
		&l.CreditBand,
		&income,
		&l.MonthlyPayment,
		&l.TotalPayable,
		&l.TotalInterest,
		&l.RemainingBalance,
		&l.PaymentsMade,
		&l.Status,
		&l.Overdue,
		&l.DecisionReason,
		&l.ReviewedBy,
		&l.ReviewedAt,
		&l.DisbursedAt,
		&l.NextPaymentDue,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.MonthlyIncome = decimalPtr(income)
	return &l, nil
}

// Create creates a new loan
func (r *LoanRepository) Create(ctx context.Context, l *domain.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`
	_, err := r.db.Querier(ctx).Exec(ctx, query,
		l.ID, l.UserID, l.AccountID, l.RequestedAmount, l.ApprovedAmount, l.TermMonths, l.APR,
		l.Purpose, l.CreditScore, l.CreditBand, l.MonthlyIncome, l.MonthlyPayment, l.TotalPayable, l.TotalInterest,
		l.RemainingBalance, l.PaymentsMade, l.Status, l.Overdue, l.DecisionReason, l.ReviewedBy, l.ReviewedAt,
		l.DisbursedAt, l.NextPaymentDue, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// GetByID retrieves a loan by ID
func (r *LoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	return r.get(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id)
}

// GetForUpdate retrieves a loan and locks its row for the current transaction
func (r *LoanRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	return r.get(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, id)
}

func (r *LoanRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.Loan, error) {
	l, err := scanLoan(r.db.Querier(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("loan")
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return l, nil
}

// Update writes every mutable loan field
func (r *LoanRepository) Update(ctx context.Context, l *domain.Loan) error {
	query := `
		UPDATE loans SET
			approved_amount = $2, term_months = $3, apr = $4, monthly_payment = $5,
			total_payable = $6, total_interest = $7, remaining_balance = $8, payments_made = $9,
			status = $10, overdue = $11, decision_reason = $12, reviewed_by = $13, reviewed_at = $14,
			disbursed_at = $15, next_payment_due = $16, updated_at = $17
		WHERE id = $1
	`
	l.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Querier(ctx).Exec(ctx, query,
		l.ID, l.ApprovedAmount, l.TermMonths, l.APR, l.MonthlyPayment,
		l.TotalPayable, l.TotalInterest, l.RemainingBalance, l.PaymentsMade,
		l.Status, l.Overdue, l.DecisionReason, l.ReviewedBy, l.ReviewedAt,
		l.DisbursedAt, l.NextPaymentDue, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("loan")
	}
	return nil
}

// List retrieves loans matching filter, newest first
func (r *LoanRepository) List(ctx context.Context, filter domain.LoanFilter, limit, offset int) ([]domain.Loan, int, error) {
	var c conditions
	if filter.UserID != nil {
		c.add("user_id = $%d", *filter.UserID)
	}
	if filter.Status != nil {
		c.add("status = $%d", *filter.Status)
	}
	if filter.Overdue != nil {
		c.add("overdue = $%d", *filter.Overdue)
	}

	var total int
	if err := r.db.Querier(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM loans `+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count loans: %w", err)
	}

	query := `SELECT ` + loanColumns + ` FROM loans ` + c.where() + ` ORDER BY created_at DESC ` + c.page(limit, offset)
	loans, err := r.query(ctx, query, c.args...)
	if err != nil {
		return nil, 0, err
	}
	return loans, total, nil
}

// ListDueBefore retrieves active loans not yet flagged overdue whose next payment is before t
func (r *LoanRepository) ListDueBefore(ctx context.Context, t time.Time, limit int) ([]domain.Loan, error) {
	return r.query(ctx, `
		SELECT `+loanColumns+` FROM loans
		WHERE status = 'active' AND NOT overdue AND next_payment_due < $1
		ORDER BY next_payment_due
		LIMIT $2
	`, t, limit)
}

// MarkOverdue flags an active loan as overdue. It reports whether the flag changed.
func (r *LoanRepository) MarkOverdue(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Querier(ctx).Exec(ctx, `
		UPDATE loans SET overdue = true, updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND NOT overdue
	`, id)
	if err != nil {
		return false, fmt.Errorf("failed to flag loan overdue: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CountByStatus counts loans per status
func (r *LoanRepository) CountByStatus(ctx context.Context) (map[domain.LoanStatus]int, int, error) {
	rows, err := r.db.Querier(ctx).Query(ctx, `
		SELECT status, COUNT(*), COUNT(*) FILTER (WHERE overdue) FROM loans GROUP BY status
	`)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count loans: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.LoanStatus]int)
	overdue := 0
	for rows.Next() {
		var status domain.LoanStatus
		var n, od int
		if err := rows.Scan(&status, &n, &od); err != nil {
			return nil, 0, fmt.Errorf("failed to scan loan count: %w", err)
		}
		counts[status] = n
		overdue += od
	}
	return counts, overdue, rows.Err()
}

func (r *LoanRepository) query(ctx context.Context, query string, args ...any) ([]domain.Loan, error) {
	rows, err := r.db.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, *l)
	}
	return loans, rows.Err()
}
