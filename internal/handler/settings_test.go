package handler

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
	"github.com/ledgerline/ledgerline/internal/testutil"
)

func setupSettingsTestApp(mockSvc *MockSettingsService, adminID uuid.UUID) *fiber.App {
	app := fiber.New()
	app.Use(testutil.TestAdminMiddleware(adminID))

	h := NewSettingsHandler(mockSvc, zap.NewNop())
	app.Get("/admin/settings", h.ListSettings)
	app.Get("/admin/settings/:key", h.GetSetting)
	app.Put("/admin/settings/:key", h.UpdateSetting)
	return app
}

func TestSettingsHandler_ListSettings(t *testing.T) {
	mockSvc := new(MockSettingsService)
	app := setupSettingsTestApp(mockSvc, uuid.New())

	mockSvc.On("List", mock.Anything).Return([]domain.Setting{
		{Key: domain.SettingMaintenanceMode, Type: domain.SettingTypeBool, Value: "false", Default: "false", IsDefault: true},
	}, nil)

	resp, body := doRequest(t, app, http.MethodGet, "/admin/settings", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	settings, ok := body["settings"].([]any)
	require.True(t, ok)
	require.Len(t, settings, 1)
	assert.Equal(t, domain.SettingMaintenanceMode, settings[0].(map[string]any)["key"])
}

func TestSettingsHandler_UpdateSetting(t *testing.T) {
	adminID := uuid.New()
	isAdmin := mock.MatchedBy(func(a domain.Actor) bool {
		return a.ID == adminID && a.Email == "admin@example.com"
	})

	t.Run("valid value", func(t *testing.T) {
		mockSvc := new(MockSettingsService)
		app := setupSettingsTestApp(mockSvc, adminID)

		mockSvc.On("Update", mock.Anything, isAdmin, domain.SettingMaintenanceMode, "true").
			Return(&domain.Setting{Key: domain.SettingMaintenanceMode, Type: domain.SettingTypeBool, Value: "true"}, nil)

		resp, body := doRequest(t, app, http.MethodPut, "/admin/settings/"+domain.SettingMaintenanceMode,
			map[string]any{"value": "true"})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "true", body["value"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("value rejected by the registry", func(t *testing.T) {
		mockSvc := new(MockSettingsService)
		app := setupSettingsTestApp(mockSvc, adminID)

		mockSvc.On("Update", mock.Anything, isAdmin, domain.SettingMaintenanceMode, "sometimes").
			Return(nil, apperrors.Validation("value must be true or false"))

		resp, body := doRequest(t, app, http.MethodPut, "/admin/settings/"+domain.SettingMaintenanceMode,
			map[string]any{"value": "sometimes"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, apperrors.CodeValidation, body["code"])
	})
}

func TestSettingsHandler_GetSetting_Unknown(t *testing.T) {
	mockSvc := new(MockSettingsService)
	app := setupSettingsTestApp(mockSvc, uuid.New())

	mockSvc.On("Get", mock.Anything, "no.such.key").Return(nil, apperrors.NotFound("setting"))

	resp, body := doRequest(t, app, http.MethodGet, "/admin/settings/no.such.key", nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apperrors.CodeNotFound, body["code"])
}
