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

const wireColumns = `id, user_id, account_id, reference, type, amount, fee, beneficiary_name, bank_name,
	beneficiary_account, routing_number, swift_code, memo, status, rejection_reason,
	processed_by, processed_at, created_at, updated_at`

// WireRepository handles wire transfers in PostgreSQL
type WireRepository struct {
	db *database.PostgresDB
}

// NewWireRepository creates a new wire repository
func NewWireRepository(db *database.PostgresDB) *WireRepository {
	return &WireRepository{db: db}
}

func scanWire(row pgx.Row) (*domain.WireTransfer, error) {
	var w domain.WireTransfer
	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.AccountID,
		&w.Reference,
		&w.Type,
		&w.Amount,
		&w.Fee,
		&w.BeneficiaryName,
		&w.BankName,
		&w.BeneficiaryAccount,
		&w.RoutingNumber,
		&w.SwiftCode,
		&w.Memo,
		&w.Status,
		&w.RejectionReason,
		&w.ProcessedBy,
		&w.ProcessedAt,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Create creates a new wire transfer
func (r *WireRepository) Create(ctx context.Context, w *domain.WireTransfer) error {
	_, err := r.db.Querier(ctx).Exec(ctx, `
		INSERT INTO wire_transfers (`+wireColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`,
		w.ID, w.UserID, w.AccountID, w.Reference, w.Type, w.Amount, w.Fee, w.BeneficiaryName, w.BankName,
		w.BeneficiaryAccount, w.RoutingNumber, w.SwiftCode, w.Memo, w.Status, w.RejectionReason,
		w.ProcessedBy, w.ProcessedAt, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("wire reference already exists")
		}
		return fmt.Errorf("failed to create wire transfer: %w", err)
	}
	return nil
}

// GetByID retrieves a wire transfer by ID
func (r *WireRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WireTransfer, error) {
	return r.get(ctx, `SELECT `+wireColumns+` FROM wire_transfers WHERE id = $1`, id)
}

// GetForUpdate retrieves and locks a wire transfer
func (r *WireRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.WireTransfer, error) {
	return r.get(ctx, `SELECT `+wireColumns+` FROM wire_transfers WHERE id = $1 FOR UPDATE`, id)
}

func (r *WireRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.WireTransfer, error) {
	w, err := scanWire(r.db.Querier(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("wire transfer")
		}
		return nil, fmt.Errorf("failed to get wire transfer: %w", err)
	}
	return w, nil
}

// SumSince totals the amount of a user's pending and completed wires created after since
func (r *WireRepository) SumSince(ctx context.Context, userID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.Querier(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM wire_transfers
		WHERE user_id = $1 AND status IN ('pending', 'completed') AND created_at >= $2
	`, userID, since).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum wire transfers: %w", err)
	}
	return total, nil
}

// UpdateStatus records a completion, rejection or cancellation
func (r *WireRepository) UpdateStatus(ctx context.Context, w *domain.WireTransfer) error {
	w.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Querier(ctx).Exec(ctx, `
		UPDATE wire_transfers
		SET status = $2, rejection_reason = $3, processed_by = $4, processed_at = $5, updated_at = $6
		WHERE id = $1
	`, w.ID, w.Status, w.RejectionReason, w.ProcessedBy, w.ProcessedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update wire transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("wire transfer")
	}
	return nil
}

// List retrieves wire transfers matching filter, newest first
func (r *WireRepository) List(ctx context.Context, filter domain.WireFilter, limit, offset int) ([]domain.WireTransfer, int, error) {
	var c conditions
	if filter.UserID != nil {
		c.add("user_id = $%d", *filter.UserID)
	}
	if filter.Status != nil {
		c.add("status = $%d", *filter.Status)
	}
	if filter.Type != nil {
		c.add("type = $%d", *filter.Type)
	}

	var total int
	if err := r.db.Querier(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM wire_transfers `+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count wire transfers: %w", err)
	}

	query := `SELECT ` + wireColumns + ` FROM wire_transfers ` + c.where() + ` ORDER BY created_at DESC ` + c.page(limit, offset)
	rows, err := r.db.Querier(ctx).Query(ctx, query, c.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list wire transfers: %w", err)
	}
	defer rows.Close()

	var wires []domain.WireTransfer
	for rows.Next() {
		w, err := scanWire(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan wire transfer: %w", err)
		}
		wires = append(wires, *w)
	}
	return wires, total, rows.Err()
}

// CountPending counts wires awaiting processing
func (r *WireRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM wire_transfers WHERE status = 'pending'`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count wire transfers: %w", err)
	}
	return n, nil
}
