package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerline/ledgerline/internal/domain"
	"github.com/ledgerline/ledgerline/internal/pkg/database"
)

const ledgerEventsDDL = `
	CREATE TABLE IF NOT EXISTS ledger_events (
		seq           UInt64,
		id            UUID,
		account_id    UUID,
		direction     LowCardinality(String),
		amount        Decimal(20, 2),
		balance_after Decimal(20, 2),
		category      LowCardinality(String),
		reference_id  Nullable(UUID),
		description   String,
		created_at    DateTime64(3, 'UTC')
	)
	ENGINE = ReplacingMergeTree
	PARTITION BY toYYYYMM(created_at)
	ORDER BY (account_id, seq)
`

// LedgerEventRepository mirrors ledger entries into ClickHouse for reporting
type LedgerEventRepository struct {
	db *database.ClickHouseDB
}

// NewLedgerEventRepository creates a new ledger event repository
func NewLedgerEventRepository(db *database.ClickHouseDB) *LedgerEventRepository {
	return &LedgerEventRepository{db: db}
}

// EnsureSchema creates the ledger_events table when missing
func (r *LedgerEventRepository) EnsureSchema(ctx context.Context) error {
	if err := r.db.Exec(ctx, ledgerEventsDDL); err != nil {
		return fmt.Errorf("failed to create ledger_events: %w", err)
	}
	return nil
}

// Insert batch-inserts ledger entries. Re-inserting a seq is collapsed by the table engine.
func (r *LedgerEventRepository) Insert(ctx context.Context, entries []domain.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch, err := r.db.PrepareBatch(ctx, `
		INSERT INTO ledger_events (
			seq, id, account_id, direction, amount, balance_after,
			category, reference_id, description, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, e := range entries {
		if err := batch.Append(
			uint64(e.Seq),
			e.ID,
			e.AccountID,
			string(e.Direction),
			e.Amount,
			e.BalanceAfter,
			string(e.Category),
			e.ReferenceID,
			e.Description,
			e.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to append ledger event: %w", err)
		}
	}

	return batch.Send()
}

// DailyVolumes aggregates credits and debits per UTC day since the given time
func (r *LedgerEventRepository) DailyVolumes(ctx context.Context, since time.Time) ([]domain.DailyVolume, error) {
	query := `
		SELECT
			toDateTime(toDate(created_at)) AS day,
			sumIf(amount, direction = 'credit') AS credits,
			sumIf(amount, direction = 'debit') AS debits,
			count() AS entries
		FROM ledger_events FINAL
		WHERE created_at >= ?
		GROUP BY day
		ORDER BY day
	`

	var volumes []domain.DailyVolume
	if err := r.db.Select(ctx, &volumes, query, since); err != nil {
		return nil, fmt.Errorf("failed to query daily volumes: %w", err)
	}
	return volumes, nil
}
