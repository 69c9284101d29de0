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

const depositColumns = `id, user_id, account_id, amount, check_number, front_image_key, back_image_key,
	status, rejection_reason, reviewed_by, reviewed_at, created_at, updated_at`

// DepositRepository handles mobile deposits in PostgreSQL
type DepositRepository struct {
	db *database.PostgresDB
}

// NewDepositRepository creates a new deposit repository
func NewDepositRepository(db *database.PostgresDB) *DepositRepository {
	return &DepositRepository{db: db}
}

func scanDeposit(row pgx.Row) (*domain.MobileDeposit, error) {
	var d domain.MobileDeposit
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.AccountID,
		&d.Amount,
		&d.CheckNumber,
		&d.FrontImageKey,
		&d.BackImageKey,
		&d.Status,
		&d.RejectionReason,
		&d.ReviewedBy,
		&d.ReviewedAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create creates a new deposit
func (r *DepositRepository) Create(ctx context.Context, d *domain.MobileDeposit) error {
	_, err := r.db.Querier(ctx).Exec(ctx, `
		INSERT INTO mobile_deposits (`+depositColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		d.ID, d.UserID, d.AccountID, d.Amount, d.CheckNumber, d.FrontImageKey, d.BackImageKey,
		d.Status, d.RejectionReason, d.ReviewedBy, d.ReviewedAt, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("check has already been deposited")
		}
		return fmt.Errorf("failed to create deposit: %w", err)
	}
	return nil
}

// GetByID retrieves a deposit by ID
func (r *DepositRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.MobileDeposit, error) {
	return r.get(ctx, `SELECT `+depositColumns+` FROM mobile_deposits WHERE id = $1`, id)
}

// GetForUpdate retrieves and locks a deposit
func (r *DepositRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.MobileDeposit, error) {
	return r.get(ctx, `SELECT `+depositColumns+` FROM mobile_deposits WHERE id = $1 FOR UPDATE`, id)
}

func (r *DepositRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.MobileDeposit, error) {
	d, err := scanDeposit(r.db.Querier(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("deposit")
		}
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	return d, nil
}

// CheckNumberInUse reports whether a non-rejected deposit exists for the user and check number
func (r *DepositRepository) CheckNumberInUse(ctx context.Context, userID uuid.UUID, checkNumber string) (bool, error) {
	var exists bool
	err := r.db.Querier(ctx).QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM mobile_deposits
			WHERE user_id = $1 AND check_number = $2 AND status <> 'rejected'
		)
	`, userID, checkNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check deposit: %w", err)
	}
	return exists, nil
}

// SumSince totals a user's pending and approved deposits created after since
func (r *DepositRepository) SumSince(ctx context.Context, userID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.Querier(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM mobile_deposits
		WHERE user_id = $1 AND status IN ('pending', 'approved') AND created_at >= $2
	`, userID, since).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum deposits: %w", err)
	}
	return total, nil
}

// UpdateReview records an approval or rejection
func (r *DepositRepository) UpdateReview(ctx context.Context, d *domain.MobileDeposit) error {
	d.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Querier(ctx).Exec(ctx, `
		UPDATE mobile_deposits
		SET status = $2, rejection_reason = $3, reviewed_by = $4, reviewed_at = $5, updated_at = $6
		WHERE id = $1
	`, d.ID, d.Status, d.RejectionReason, d.ReviewedBy, d.ReviewedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update deposit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("deposit")
	}
	return nil
}

// List retrieves deposits matching filter, newest first
func (r *DepositRepository) List(ctx context.Context, filter domain.DepositFilter, limit, offset int) ([]domain.MobileDeposit, int, error) {
	var c conditions
	if filter.UserID != nil {
		c.add("user_id = $%d", *filter.UserID)
	}
	if filter.Status != nil {
		c.add("status = $%d", *filter.Status)
	}

	var total int
	if err := r.db.Querier(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM mobile_deposits `+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count deposits: %w", err)
	}

	query := `SELECT ` + depositColumns + ` FROM mobile_deposits ` + c.where() + ` ORDER BY created_at DESC ` + c.page(limit, offset)
	rows, err := r.db.Querier(ctx).Query(ctx, query, c.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list deposits: %w", err)
	}
	defer rows.Close()

	var deposits []domain.MobileDeposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan deposit: %w", err)
		}
		deposits = append(deposits, *d)
	}
	return deposits, total, rows.Err()
}

// CountPending counts deposits awaiting review
func (r *DepositRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM mobile_deposits WHERE status = 'pending'`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count deposits: %w", err)
	}
	return n, nil
}
