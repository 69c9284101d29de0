package postgres

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoRepository_ConcurrentFirstBuys(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	email := "test-holdings@ledgerline.test"
	cleanupUsers(t, db, email)
	defer cleanupUsers(t, db, email)

	user, _ := seedAccount(t, db, email, "9900000101", "0.00")
	repo := NewCryptoRepository(db)

	empty, err := repo.ListHoldings(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	const buyers = 8
	var wg sync.WaitGroup
	errs := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- db.WithinTx(ctx, func(ctx context.Context) error {
				h, err := repo.GetHoldingForUpdate(ctx, user.ID, "BTC")
				if err != nil {
					return err
				}
				h.Quantity = h.Quantity.Add(decimal.RequireFromString("0.5"))
				h.CostBasis = h.CostBasis.Add(decimal.RequireFromString("100"))
				return repo.SaveHolding(ctx, h)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	holdings, err := repo.ListHoldings(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, "4", holdings[0].Quantity.String(), "no buy overwrote another")
	assert.Equal(t, "800", holdings[0].CostBasis.String())
}

func TestCryptoRepository_GetHoldingForUpdate_EmptyPosition(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	email := "test-empty-holding@ledgerline.test"
	cleanupUsers(t, db, email)
	defer cleanupUsers(t, db, email)

	user, _ := seedAccount(t, db, email, "9900000102", "0.00")
	repo := NewCryptoRepository(db)

	h, err := repo.GetHoldingForUpdate(ctx, user.ID, "ETH")
	require.NoError(t, err)
	assert.True(t, h.Quantity.IsZero())
	assert.True(t, h.CostBasis.IsZero())

	holdings, err := repo.ListHoldings(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, holdings, "empty positions stay hidden")
}
