package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/domain"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
)

// MockSettingRepository is a mock implementation of SettingRepository
type MockSettingRepository struct {
	mock.Mock
}

func (m *MockSettingRepository) List(ctx context.Context) ([]domain.StoredSetting, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.StoredSetting), args.Error(1)
}

func (m *MockSettingRepository) Upsert(ctx context.Context, s *domain.StoredSetting) error {
	return m.Called(ctx, s).Error(0)
}

func TestNormalizeSetting(t *testing.T) {
	def := func(key string) domain.SettingDefinition {
		d, ok := LookupSetting(key)
		require.True(t, ok, key)
		return d
	}

	tests := []struct {
		name    string
		key     string
		raw     string
		want    string
		wantErr bool
	}{
		{"bool", domain.SettingMaintenanceMode, " TRUE ", "true", false},
		{"bool invalid", domain.SettingMaintenanceMode, "yes please", "", true},
		{"int", domain.SettingDepositMaxImageBytes, "1048576", "1048576", false},
		{"int negative", domain.SettingDepositMaxImageBytes, "-1", "", true},
		{"decimal trims zeros", domain.SettingCryptoFeePercent, "1.500", "1.5", false},
		{"decimal negative", domain.SettingWireFeeDomestic, "-5", "", true},
		{"asset list is upper cased and deduplicated", domain.SettingCryptoAssets, "btc, eth,btc ,sol", "BTC,ETH,SOL", false},
		{"asset list rejects symbols", domain.SettingCryptoAssets, "BTC,$$", "", true},
		{"empty list", domain.SettingCryptoAssets, " , ", "", true},
		{"custom asset price", domain.SettingCryptoPricePrefix + "SOL", "142.10", "142.1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeSetting(def(tt.key), tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupSetting(t *testing.T) {
	_, ok := LookupSetting("crypto.price.bad symbol")
	assert.False(t, ok)
	_, ok = LookupSetting("no.such.key")
	assert.False(t, ok)
	d, ok := LookupSetting(domain.SettingWireDailyLimit)
	require.True(t, ok)
	assert.Equal(t, "100000", d.Default)
}

func TestSettingsService_TypedGetters(t *testing.T) {
	repo := new(MockSettingRepository)
	repo.On("List", mock.Anything).Return([]domain.StoredSetting{
		{Key: domain.SettingCryptoFeePercent, Value: "2.25"},
		{Key: domain.SettingMaintenanceMode, Value: "true"},
		{Key: domain.SettingCryptoAssets, Value: "BTC,ETH"},
	}, nil)
	svc := NewSettingsService(repo, nil, nil, testLogger)
	ctx := context.Background()

	assert.Equal(t, "2.25", svc.Decimal(ctx, domain.SettingCryptoFeePercent).String())
	assert.True(t, svc.Bool(ctx, domain.SettingMaintenanceMode))
	assert.Equal(t, []string{"BTC", "ETH"}, svc.Strings(ctx, domain.SettingCryptoAssets))
	assert.Equal(t, 5242880, svc.Int(ctx, domain.SettingDepositMaxImageBytes), "falls back to the default")
}

func TestSettingsService_FallsBackToDefaultsOnError(t *testing.T) {
	repo := new(MockSettingRepository)
	repo.On("List", mock.Anything).Return([]domain.StoredSetting(nil), errors.New("db down"))
	svc := NewSettingsService(repo, nil, nil, testLogger)

	assert.True(t, svc.Bool(context.Background(), domain.SettingRegistrationEnabled))
	assert.Equal(t, "25", svc.Decimal(context.Background(), domain.SettingWireFeeDomestic).String())
}

func TestSettingsService_CachesStoredValues(t *testing.T) {
	repo := new(MockSettingRepository)
	repo.On("List", mock.Anything).Return([]domain.StoredSetting{{Key: domain.SettingWireMinAmount, Value: "20"}}, nil).Once()
	cache := newMemCache()
	svc := NewSettingsService(repo, cache, nil, testLogger)
	ctx := context.Background()

	assert.Equal(t, "20", svc.Decimal(ctx, domain.SettingWireMinAmount).String())
	assert.Equal(t, "20", svc.Decimal(ctx, domain.SettingWireMinAmount).String())
	repo.AssertNumberOfCalls(t, "List", 1)
	assert.Equal(t, 1, cache.sets)
}

func TestSettingsService_Update(t *testing.T) {
	repo := new(MockSettingRepository)
	repo.On("List", mock.Anything).Return([]domain.StoredSetting{}, nil).Maybe()
	audit := new(MockAuditRecorder)
	cache := newMemCache()
	cache.values[settingsCacheKey] = []domain.StoredSetting{}
	svc := NewSettingsService(repo, cache, audit, testLogger)
	svc.now = fixedClock
	actor := domain.Actor{ID: uuid.New(), Email: "ops@bank.test"}

	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(s *domain.StoredSetting) bool {
		return s.Key == domain.SettingCryptoFeePercent && s.Value == "0.75" && *s.UpdatedBy == actor.ID
	})).Return(nil).Once()
	audit.On("Log", mock.Anything, mock.MatchedBy(func(in *domain.AuditLogInput) bool {
		return in.Action == domain.AuditActionSettingsChanged && in.Metadata["old"] == "1.5" && in.Metadata["new"] == "0.75"
	})).Return(&domain.AuditLog{}, nil).Once()

	got, err := svc.Update(context.Background(), actor, domain.SettingCryptoFeePercent, "0.750")
	require.NoError(t, err)

	assert.Equal(t, "0.75", got.Value)
	assert.False(t, got.IsDefault)
	_, cached := cache.values[settingsCacheKey]
	assert.False(t, cached, "update invalidates the cache")
	repo.AssertExpectations(t)
	audit.AssertExpectations(t)

	_, err = svc.Update(context.Background(), actor, "no.such.key", "1")
	assert.True(t, apperrors.IsValidation(err))
	_, err = svc.Update(context.Background(), actor, domain.SettingMaintenanceMode, "maybe")
	assert.True(t, apperrors.IsValidation(err))
}

func TestSettingsService_List(t *testing.T) {
	repo := new(MockSettingRepository)
	repo.On("List", mock.Anything).Return([]domain.StoredSetting{
		{Key: domain.SettingCryptoPricePrefix + "SOL", Value: "150"},
		{Key: domain.SettingWireMaxAmount, Value: "25000"},
	}, nil)
	svc := NewSettingsService(repo, nil, nil, testLogger)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, len(SettingDefinitions())+1)

	byKey := make(map[string]domain.Setting)
	for i, s := range list {
		if i > 0 {
			assert.Less(t, list[i-1].Key, s.Key, "sorted by key")
		}
		byKey[s.Key] = s
	}
	assert.Equal(t, "25000", byKey[domain.SettingWireMaxAmount].Value)
	assert.False(t, byKey[domain.SettingWireMaxAmount].IsDefault)
	assert.True(t, byKey[domain.SettingWireMinAmount].IsDefault)
	assert.Equal(t, "150", byKey[domain.SettingCryptoPricePrefix+"SOL"].Value)
}
