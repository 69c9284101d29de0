package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
)

const settingsCacheKey = "all"

// SettingRepository defines stored setting operations
type SettingRepository interface {
	List(ctx context.Context) ([]domain.StoredSetting, error)
	Upsert(ctx context.Context, s *domain.StoredSetting) error
}

// Cache is a JSON value cache
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
}

// SettingsService manages typed system settings backed by Postgres and cached in Redis
type SettingsService struct {
	repo   SettingRepository
	cache  Cache
	audit  AuditRecorder
	logger *zap.Logger
	now    Clock
}

// NewSettingsService creates a new settings service. cache may be nil.
func NewSettingsService(repo SettingRepository, cache Cache, audit AuditRecorder, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		repo:   repo,
		cache:  cache,
		audit:  audit,
		logger: logger,
		now:    utcNow,
	}
}

func (s *SettingsService) stored(ctx context.Context) (map[string]domain.StoredSetting, error) {
	var list []domain.StoredSetting
	if s.cache != nil {
		hit, err := s.cache.Get(ctx, settingsCacheKey, &list)
		if err != nil {
			s.logger.Warn("settings cache read failed", zap.Error(err))
		}
		if hit {
			return indexSettings(list), nil
		}
	}

	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, settingsCacheKey, list); err != nil {
			s.logger.Warn("settings cache write failed", zap.Error(err))
		}
	}
	return indexSettings(list), nil
}

func indexSettings(list []domain.StoredSetting) map[string]domain.StoredSetting {
	m := make(map[string]domain.StoredSetting, len(list))
	for _, st := range list {
		m[st.Key] = st
	}
	return m
}

func materialize(def domain.SettingDefinition, st *domain.StoredSetting) domain.Setting {
	out := domain.Setting{
		Key:         def.Key,
		Type:        def.Type,
		Value:       def.Default,
		Default:     def.Default,
		Description: def.Description,
		IsDefault:   true,
	}
	if st != nil {
		at := st.UpdatedAt
		out.Value = st.Value
		out.IsDefault = false
		out.UpdatedBy = st.UpdatedBy
		out.UpdatedAt = &at
	}
	return out
}

// List returns every known setting with its effective value
func (s *SettingsService) List(ctx context.Context) ([]domain.Setting, error) {
	stored, err := s.stored(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []domain.Setting
	for _, def := range SettingDefinitions() {
		seen[def.Key] = true
		if st, ok := stored[def.Key]; ok {
			out = append(out, materialize(def, &st))
		} else {
			out = append(out, materialize(def, nil))
		}
	}
	for key, st := range stored {
		if seen[key] {
			continue
		}
		if def, ok := LookupSetting(key); ok {
			out = append(out, materialize(def, &st))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Get returns a single setting
func (s *SettingsService) Get(ctx context.Context, key string) (*domain.Setting, error) {
	def, ok := LookupSetting(key)
	if !ok {
		return nil, apperrors.NotFound("setting")
	}
	stored, err := s.stored(ctx)
	if err != nil {
		return nil, err
	}
	var setting domain.Setting
	if st, ok := stored[key]; ok {
		setting = materialize(def, &st)
	} else {
		setting = materialize(def, nil)
	}
	return &setting, nil
}

// Update validates and stores a setting value
func (s *SettingsService) Update(ctx context.Context, actor domain.Actor, key, value string) (*domain.Setting, error) {
	def, ok := LookupSetting(key)
	if !ok {
		return nil, apperrors.Validation(fmt.Sprintf("unknown setting %q", key))
	}
	normalized, err := NormalizeSetting(def, value)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	previous, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	st := &domain.StoredSetting{
		Key:       key,
		Value:     normalized,
		UpdatedAt: s.now(),
	}
	if actor.ID != uuid.Nil {
		id := actor.ID
		st.UpdatedBy = &id
	}
	if err := s.repo.Upsert(ctx, st); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, settingsCacheKey); err != nil {
			s.logger.Warn("settings cache invalidation failed", zap.Error(err))
		}
	}

	in := actor.AuditInput(domain.AuditActionSettingsChanged, domain.AuditResourceSetting, key,
		fmt.Sprintf("Changed %s from %q to %q", key, previous.Value, normalized))
	in.Metadata = map[string]any{"old": previous.Value, "new": normalized}
	recordAudit(ctx, s.audit, s.logger, in)

	updated := materialize(def, st)
	return &updated, nil
}

func (s *SettingsService) raw(ctx context.Context, key string) string {
	def, _ := LookupSetting(key)
	stored, err := s.stored(ctx)
	if err != nil {
		s.logger.Error("falling back to setting default", zap.String("key", key), zap.Error(err))
		return def.Default
	}
	if st, ok := stored[key]; ok {
		return st.Value
	}
	return def.Default
}

// Bool returns a boolean setting, false when unset or malformed
func (s *SettingsService) Bool(ctx context.Context, key string) bool {
	b, _ := strconv.ParseBool(s.raw(ctx, key))
	return b
}

// Int returns an integer setting, zero when unset or malformed
func (s *SettingsService) Int(ctx context.Context, key string) int {
	n, _ := strconv.Atoi(s.raw(ctx, key))
	return n
}

// Decimal returns a decimal setting, zero when unset or malformed
func (s *SettingsService) Decimal(ctx context.Context, key string) decimal.Decimal {
	d, err := decimal.NewFromString(s.raw(ctx, key))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Strings returns a list setting
func (s *SettingsService) Strings(ctx context.Context, key string) []string {
	return splitSettingList(s.raw(ctx, key))
}
