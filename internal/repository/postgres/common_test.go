package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/config"
	"github.com/ledgerline/ledgerline/internal/domain"
	"github.com/ledgerline/ledgerline/internal/pkg/database"
)

// getTestDB returns a migrated database connection for integration tests.
// Returns nil if the database is not available (skips tests).
func getTestDB(t *testing.T) *database.PostgresDB {
	// Check if we're running integration tests
	if os.Getenv("POSTGRES_TEST_HOST") == "" {
		t.Skip("Skipping integration test: POSTGRES_TEST_HOST not set")
		return nil
	}

	cfg := config.PostgresConfig{
		Host:     os.Getenv("POSTGRES_TEST_HOST"),
		Port:     5432,
		User:     os.Getenv("POSTGRES_TEST_USER"),
		Password: os.Getenv("POSTGRES_TEST_PASS"),
		Database: os.Getenv("POSTGRES_TEST_DB"),
		SSLMode:  "disable",
		MaxConns: 5,
		MinConns: 1,
	}

	if cfg.Database == "" {
		cfg.Database = "test_ledgerline"
	}
	if cfg.User == "" {
		cfg.User = "postgres"
	}

	ctx := context.Background()
	sqlDB, err := database.NewSQLX(ctx, cfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to PostgreSQL: %v", err)
		return nil
	}
	defer sqlDB.Close()
	require.NoError(t, database.Migrate(ctx, sqlDB))

	db, err := database.NewPostgres(ctx, cfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to PostgreSQL: %v", err)
		return nil
	}

	return db
}

// cleanupUsers removes test users and everything they own
func cleanupUsers(t *testing.T, db *database.PostgresDB, emails ...string) {
	ctx := context.Background()
	for _, email := range emails {
		for _, q := range []string{
			"DELETE FROM ledger_entries WHERE account_id IN (SELECT a.id FROM accounts a JOIN users u ON u.id = a.user_id WHERE u.email = $1)",
			"DELETE FROM loans WHERE user_id IN (SELECT id FROM users WHERE email = $1)",
			"DELETE FROM wire_transfers WHERE user_id IN (SELECT id FROM users WHERE email = $1)",
			"DELETE FROM mobile_deposits WHERE user_id IN (SELECT id FROM users WHERE email = $1)",
			"DELETE FROM crypto_transactions WHERE user_id IN (SELECT id FROM users WHERE email = $1)",
			"DELETE FROM crypto_holdings WHERE user_id IN (SELECT id FROM users WHERE email = $1)",
			"DELETE FROM accounts WHERE user_id IN (SELECT id FROM users WHERE email = $1)",
			"DELETE FROM users WHERE email = $1",
		} {
			_, _ = db.Pool.Exec(ctx, q, email)
		}
	}
}

// createTestUser creates a user with test data
func createTestUser(email string) *domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "$2a$10$testpasswordhash",
		FullName:     "Test User",
		Role:         domain.RoleCustomer,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// seedAccount stores a user with one checking account holding balance
func seedAccount(t *testing.T, db *database.PostgresDB, email, number string, balance string) (*domain.User, *domain.Account) {
	ctx := context.Background()
	user := createTestUser(email)
	require.NoError(t, NewUserRepository(db).Create(ctx, user))

	account := &domain.Account{
		ID:        uuid.New(),
		UserID:    user.ID,
		Number:    number,
		Type:      domain.AccountTypeChecking,
		Currency:  "USD",
		Balance:   decimal.RequireFromString(balance),
		Status:    domain.AccountStatusActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.CreatedAt,
	}
	require.NoError(t, NewAccountRepository(db).Create(ctx, account))
	return user, account
}
