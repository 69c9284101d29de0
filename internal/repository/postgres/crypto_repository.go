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

const cryptoTxColumns = `id, user_id, account_id, side, asset, quantity, price, amount, fee,
	avg_cost_at_sale, cost_removed, status, settled_by, settled_at, cancel_reason, created_at, updated_at`

// CryptoRepository handles crypto holdings and transactions in PostgreSQL
type CryptoRepository struct {
	db *database.PostgresDB
}

// NewCryptoRepository creates a new crypto repository
func NewCryptoRepository(db *database.PostgresDB) *CryptoRepository {
	return &CryptoRepository{db: db}
}

func scanCryptoTx(row pgx.Row) (*domain.CryptoTransaction, error) {
	var t domain.CryptoTransaction
	var avg, removed decimal.NullDecimal
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.AccountID,
		&t.Side,
		&t.Asset,
		&t.Quantity,
		&t.Price,
		&t.Amount,
		&t.Fee,
		&avg,
		&removed,
		&t.Status,
		&t.SettledBy,
		&t.SettledAt,
		&t.CancelReason,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.AvgCostAtSale = decimalPtr(avg)
	t.CostRemoved = decimalPtr(removed)
	return &t, nil
}

// GetHoldingForUpdate locks a holding, creating an empty one first when the
// user has never held asset, so concurrent trades always contend on a row.
func (r *CryptoRepository) GetHoldingForUpdate(ctx context.Context, userID uuid.UUID, asset string) (*domain.Holding, error) {
	q := r.db.Querier(ctx)
	if _, err := q.Exec(ctx, `
		INSERT INTO crypto_holdings (user_id, asset) VALUES ($1, $2)
		ON CONFLICT (user_id, asset) DO NOTHING
	`, userID, asset); err != nil {
		return nil, fmt.Errorf("failed to open holding: %w", err)
	}

	h := domain.Holding{UserID: userID, Asset: asset}
	err := q.QueryRow(ctx, `
		SELECT quantity, cost_basis, updated_at FROM crypto_holdings
		WHERE user_id = $1 AND asset = $2
		FOR UPDATE
	`, userID, asset).Scan(&h.Quantity, &h.CostBasis, &h.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return &h, nil
}

// SaveHolding writes a holding previously locked by GetHoldingForUpdate
func (r *CryptoRepository) SaveHolding(ctx context.Context, h *domain.Holding) error {
	h.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Querier(ctx).Exec(ctx, `
		UPDATE crypto_holdings SET quantity = $3, cost_basis = $4, updated_at = $5
		WHERE user_id = $1 AND asset = $2
	`, h.UserID, h.Asset, h.Quantity, h.CostBasis, h.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save holding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("holding")
	}
	return nil
}

// ListHoldings retrieves a user's non-empty holdings
func (r *CryptoRepository) ListHoldings(ctx context.Context, userID uuid.UUID) ([]domain.Holding, error) {
	rows, err := r.db.Querier(ctx).Query(ctx, `
		SELECT user_id, asset, quantity, cost_basis, updated_at FROM crypto_holdings
		WHERE user_id = $1 AND quantity > 0
		ORDER BY asset
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		var h domain.Holding
		if err := rows.Scan(&h.UserID, &h.Asset, &h.Quantity, &h.CostBasis, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// CreateTransaction creates a crypto transaction
func (r *CryptoRepository) CreateTransaction(ctx context.Context, t *domain.CryptoTransaction) error {
	_, err := r.db.Querier(ctx).Exec(ctx, `
		INSERT INTO crypto_transactions (`+cryptoTxColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		t.ID, t.UserID, t.AccountID, t.Side, t.Asset, t.Quantity, t.Price, t.Amount, t.Fee,
		t.AvgCostAtSale, t.CostRemoved, t.Status, t.SettledBy, t.SettledAt, t.CancelReason, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create crypto transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a crypto transaction by ID
func (r *CryptoRepository) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.CryptoTransaction, error) {
	return r.getTx(ctx, `SELECT `+cryptoTxColumns+` FROM crypto_transactions WHERE id = $1`, id)
}

// GetTransactionForUpdate retrieves and locks a crypto transaction
func (r *CryptoRepository) GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*domain.CryptoTransaction, error) {
	return r.getTx(ctx, `SELECT `+cryptoTxColumns+` FROM crypto_transactions WHERE id = $1 FOR UPDATE`, id)
}

func (r *CryptoRepository) getTx(ctx context.Context, query string, id uuid.UUID) (*domain.CryptoTransaction, error) {
	t, err := scanCryptoTx(r.db.Querier(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("crypto transaction")
		}
		return nil, fmt.Errorf("failed to get crypto transaction: %w", err)
	}
	return t, nil
}

// UpdateTransactionStatus records a settlement or cancellation
func (r *CryptoRepository) UpdateTransactionStatus(ctx context.Context, t *domain.CryptoTransaction) error {
	t.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Querier(ctx).Exec(ctx, `
		UPDATE crypto_transactions
		SET status = $2, settled_by = $3, settled_at = $4, cancel_reason = $5, updated_at = $6
		WHERE id = $1
	`, t.ID, t.Status, t.SettledBy, t.SettledAt, t.CancelReason, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update crypto transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("crypto transaction")
	}
	return nil
}

// ListTransactions retrieves crypto transactions matching filter, newest first
func (r *CryptoRepository) ListTransactions(ctx context.Context, filter domain.CryptoFilter, limit, offset int) ([]domain.CryptoTransaction, int, error) {
	var c conditions
	if filter.UserID != nil {
		c.add("user_id = $%d", *filter.UserID)
	}
	if filter.Status != nil {
		c.add("status = $%d", *filter.Status)
	}
	if filter.Side != nil {
		c.add("side = $%d", *filter.Side)
	}
	if filter.Asset != "" {
		c.add("asset = $%d", filter.Asset)
	}

	var total int
	if err := r.db.Querier(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM crypto_transactions `+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count crypto transactions: %w", err)
	}

	query := `SELECT ` + cryptoTxColumns + ` FROM crypto_transactions ` + c.where() + ` ORDER BY created_at DESC ` + c.page(limit, offset)
	rows, err := r.db.Querier(ctx).Query(ctx, query, c.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list crypto transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.CryptoTransaction
	for rows.Next() {
		t, err := scanCryptoTx(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan crypto transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, total, rows.Err()
}

// CountPending counts crypto transactions awaiting settlement
func (r *CryptoRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM crypto_transactions WHERE status = 'pending'`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count crypto transactions: %w", err)
	}
	return n, nil
}
