package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/domain"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
)

func TestAccountRepository_Postings(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	email := "test-postings@ledgerline.test"
	cleanupUsers(t, db, email)
	defer cleanupUsers(t, db, email)

	_, account := seedAccount(t, db, email, "9900000001", "100.00")
	repo := NewAccountRepository(db)

	credit, err := repo.Credit(ctx, &domain.Posting{
		AccountID: account.ID,
		Amount:    decimal.RequireFromString("25.50"),
		Category:  domain.CategoryMobileDeposit,
	})
	require.NoError(t, err)
	assert.Equal(t, "125.5", credit.BalanceAfter.String())
	assert.Positive(t, credit.Seq)

	debit, err := repo.Debit(ctx, &domain.Posting{
		AccountID: account.ID,
		Amount:    decimal.RequireFromString("125.50"),
		Category:  domain.CategoryWireTransfer,
	})
	require.NoError(t, err)
	assert.True(t, debit.BalanceAfter.IsZero())
	assert.Greater(t, debit.Seq, credit.Seq)

	t.Run("overdraft is refused", func(t *testing.T) {
		_, err := repo.Debit(ctx, &domain.Posting{
			AccountID: account.ID,
			Amount:    decimal.RequireFromString("0.01"),
			Category:  domain.CategoryWireFee,
		})
		assert.True(t, apperrors.IsInsufficientFunds(err))
	})

	t.Run("frozen account refuses postings", func(t *testing.T) {
		require.NoError(t, repo.SetStatus(ctx, account.ID, domain.AccountStatusFrozen))
		_, err := repo.Credit(ctx, &domain.Posting{
			AccountID: account.ID,
			Amount:    decimal.RequireFromString("1"),
			Category:  domain.CategoryAdjustment,
		})
		assert.True(t, apperrors.IsInvalidState(err))
	})

	entries, err := repo.ListEntries(ctx, account.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, debit.ID, entries[0].ID, "newest first")

	older, err := repo.ListEntries(ctx, account.ID, entries[0].Seq, 10)
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, credit.ID, older[0].ID)

	since, err := repo.ListEntriesSince(ctx, credit.Seq-1, time.Now().Add(time.Hour), 1000)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(since), 2)
	assert.Equal(t, credit.ID, since[0].ID)

	unsettled, err := repo.ListEntriesSince(ctx, credit.Seq-1, credit.CreatedAt.Add(-time.Millisecond), 1000)
	require.NoError(t, err)
	assert.Empty(t, unsettled, "entries newer than the cutoff are held back")
}

func TestAccountRepository_RollbackUndoesPosting(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	email := "test-rollback@ledgerline.test"
	cleanupUsers(t, db, email)
	defer cleanupUsers(t, db, email)

	_, account := seedAccount(t, db, email, "9900000002", "50.00")
	repo := NewAccountRepository(db)

	err := db.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := repo.Debit(ctx, &domain.Posting{
			AccountID: account.ID,
			Amount:    decimal.RequireFromString("20"),
			Category:  domain.CategoryWireTransfer,
		}); err != nil {
			return err
		}
		_, err := repo.Debit(ctx, &domain.Posting{
			AccountID: account.ID,
			Amount:    decimal.RequireFromString("40"),
			Category:  domain.CategoryWireFee,
		})
		return err
	})
	require.True(t, apperrors.IsInsufficientFunds(err))

	fetched, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "50", fetched.Balance.String())

	entries, err := repo.ListEntries(ctx, account.ID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
