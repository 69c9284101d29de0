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

const (
	accountColumns = `id, user_id, number, type, currency, balance, status, created_at, updated_at`
	entryColumns   = `id, seq, account_id, direction, amount, balance_after, category, reference_id, description, created_at`
)

// AccountRepository handles accounts and their ledger in PostgreSQL
type AccountRepository struct {
	db *database.PostgresDB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.PostgresDB) *AccountRepository {
	return &AccountRepository{db: db}
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Number,
		&a.Type,
		&a.Currency,
		&a.Balance,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := row.Scan(
		&e.ID,
		&e.Seq,
		&e.AccountID,
		&e.Direction,
		&e.Amount,
		&e.BalanceAfter,
		&e.Category,
		&e.ReferenceID,
		&e.Description,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create creates a new account
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, number, type, currency, balance, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Querier(ctx).Exec(ctx, query,
		a.ID, a.UserID, a.Number, a.Type, a.Currency, a.Balance, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("account number already in use")
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// NumberExists checks whether an account number is taken
func (r *AccountRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE number = $1)`, number,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check account number: %w", err)
	}
	return exists, nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	a, err := scanAccount(r.db.Querier(ctx).QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("account")
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

// ListByUserID retrieves a user's accounts, oldest first
func (r *AccountRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	rows, err := r.db.Querier(ctx).Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// SetStatus sets an account's status
func (r *AccountRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) error {
	tag, err := r.db.Querier(ctx).Exec(ctx,
		`UPDATE accounts SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("account")
	}
	return nil
}

// LockOwner takes a transaction-scoped advisory lock on userID. It
// serializes a user's limit checks with the inserts that follow them and
// only holds when ctx carries a transaction.
func (r *AccountRepository) LockOwner(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.Querier(ctx).Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`, userID.String()); err != nil {
		return fmt.Errorf("failed to lock user %s: %w", userID, err)
	}
	return nil
}

// Credit adds p.Amount to an active account and writes its ledger entry
func (r *AccountRepository) Credit(ctx context.Context, p *domain.Posting) (*domain.LedgerEntry, error) {
	return r.post(ctx, domain.DirectionCredit, p,
		`UPDATE accounts SET balance = balance + $2, updated_at = NOW()
		 WHERE id = $1 AND status = 'active'
		 RETURNING balance`)
}

// Debit removes p.Amount from an active account holding at least that much
// and writes its ledger entry
func (r *AccountRepository) Debit(ctx context.Context, p *domain.Posting) (*domain.LedgerEntry, error) {
	return r.post(ctx, domain.DirectionDebit, p,
		`UPDATE accounts SET balance = balance - $2, updated_at = NOW()
		 WHERE id = $1 AND status = 'active' AND balance >= $2
		 RETURNING balance`)
}

func (r *AccountRepository) post(ctx context.Context, dir domain.Direction, p *domain.Posting, update string) (*domain.LedgerEntry, error) {
	if !p.Amount.IsPositive() {
		return nil, apperrors.Validation("posting amount must be positive")
	}

	q := r.db.Querier(ctx)

	var balance decimal.Decimal
	err := q.QueryRow(ctx, update, p.AccountID, p.Amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.postingFailure(ctx, p.AccountID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	entry := &domain.LedgerEntry{
		ID:           uuid.New(),
		AccountID:    p.AccountID,
		Direction:    dir,
		Amount:       p.Amount,
		BalanceAfter: balance,
		Category:     p.Category,
		ReferenceID:  p.ReferenceID,
		Description:  p.Description,
		CreatedAt:    time.Now().UTC(),
	}

	err = q.QueryRow(ctx, `
		INSERT INTO ledger_entries (id, account_id, direction, amount, balance_after, category, reference_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq
	`,
		entry.ID, entry.AccountID, entry.Direction, entry.Amount, entry.BalanceAfter,
		entry.Category, entry.ReferenceID, entry.Description, entry.CreatedAt,
	).Scan(&entry.Seq)
	if err != nil {
		return nil, fmt.Errorf("failed to write ledger entry: %w", err)
	}

	return entry, nil
}

// postingFailure explains why a guarded balance update matched no row
func (r *AccountRepository) postingFailure(ctx context.Context, id uuid.UUID) error {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Status != domain.AccountStatusActive {
		return apperrors.InvalidState("account is " + string(a.Status))
	}
	return apperrors.InsufficientFunds("")
}

// ListEntries retrieves an account's ledger, newest first, before the given sequence.
// A beforeSeq of zero starts at the newest entry.
func (r *AccountRepository) ListEntries(ctx context.Context, accountID uuid.UUID, beforeSeq int64, limit int) ([]domain.LedgerEntry, error) {
	var c conditions
	c.add("account_id = $%d", accountID)
	if beforeSeq > 0 {
		c.add("seq < $%d", beforeSeq)
	}
	c.args = append(c.args, limit)
	query := fmt.Sprintf(`SELECT %s FROM ledger_entries %s ORDER BY seq DESC LIMIT $%d`,
		entryColumns, c.where(), len(c.args))

	return r.queryEntries(ctx, query, c.args...)
}

// ListEntriesSince retrieves entries of all accounts with seq greater than
// afterSeq, in seq order. It stops before the first entry created at or after
// settledBefore so a later run never passes over a sequence number that was
// still uncommitted.
func (r *AccountRepository) ListEntriesSince(ctx context.Context, afterSeq int64, settledBefore time.Time, limit int) ([]domain.LedgerEntry, error) {
	return r.queryEntries(ctx, `
		SELECT `+entryColumns+` FROM ledger_entries
		WHERE seq > $1 AND seq < COALESCE(
			(SELECT MIN(seq) FROM ledger_entries WHERE seq > $1 AND created_at >= $2),
			9223372036854775807)
		ORDER BY seq
		LIMIT $3
	`, afterSeq, settledBefore, limit)
}

func (r *AccountRepository) queryEntries(ctx context.Context, query string, args ...any) ([]domain.LedgerEntry, error) {
	rows, err := r.db.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// TotalBalance sums the balances of every customer account
func (r *AccountRepository) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.Querier(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(a.balance), 0)
		FROM accounts a JOIN users u ON u.id = a.user_id
		WHERE u.role = 'customer'
	`).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum balances: %w", err)
	}
	return total, nil
}

// DailyVolumes aggregates ledger activity per UTC day since the given time
func (r *AccountRepository) DailyVolumes(ctx context.Context, since time.Time) ([]domain.DailyVolume, error) {
	rows, err := r.db.Querier(ctx).Query(ctx, `
		SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day,
			COALESCE(SUM(amount) FILTER (WHERE direction = 'credit'), 0),
			COALESCE(SUM(amount) FILTER (WHERE direction = 'debit'), 0),
			COUNT(*)
		FROM ledger_entries
		WHERE created_at >= $1
		GROUP BY 1
		ORDER BY 1
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ledger volumes: %w", err)
	}
	defer rows.Close()

	var out []domain.DailyVolume
	for rows.Next() {
		var v domain.DailyVolume
		var count int64
		if err := rows.Scan(&v.Day, &v.Credits, &v.Debits, &count); err != nil {
			return nil, fmt.Errorf("failed to scan ledger volume: %w", err)
		}
		v.Entries = uint64(count)
		out = append(out, v)
	}
	return out, rows.Err()
}
