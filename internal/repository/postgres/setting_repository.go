package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ledgerline/ledgerline/internal/domain"
	"github.com/ledgerline/ledgerline/internal/pkg/database"
)

// SettingRepository handles stored system settings in PostgreSQL
type SettingRepository struct {
	db *database.PostgresDB
}

// NewSettingRepository creates a new setting repository
func NewSettingRepository(db *database.PostgresDB) *SettingRepository {
	return &SettingRepository{db: db}
}

// List retrieves every stored setting
func (r *SettingRepository) List(ctx context.Context) ([]domain.StoredSetting, error) {
	rows, err := r.db.Querier(ctx).Query(ctx, `SELECT key, value, updated_by, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var settings []domain.StoredSetting
	for rows.Next() {
		var s domain.StoredSetting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedBy, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// Get retrieves a stored setting. It returns nil when the key has never been set.
func (r *SettingRepository) Get(ctx context.Context, key string) (*domain.StoredSetting, error) {
	var s domain.StoredSetting
	err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT key, value, updated_by, updated_at FROM settings WHERE key = $1`, key,
	).Scan(&s.Key, &s.Value, &s.UpdatedBy, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return &s, nil
}

// Upsert stores a setting value
func (r *SettingRepository) Upsert(ctx context.Context, s *domain.StoredSetting) error {
	_, err := r.db.Querier(ctx).Exec(ctx, `
		INSERT INTO settings (key, value, updated_by, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at
	`, s.Key, s.Value, s.UpdatedBy, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	return nil
}
