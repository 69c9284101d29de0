package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/dto"
	"github.com/ledgerline/ledgerline/internal/middleware"
)

// SettingsHandler handles admin system settings endpoints
type SettingsHandler struct {
	settingsService SettingsService
	logger          *zap.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

// ListSettings handles GET /v1/admin/settings
func (h *SettingsHandler) ListSettings(c *fiber.Ctx) error {
	settings, err := h.settingsService.List(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"settings": settings})
}

// GetSetting handles GET /v1/admin/settings/:key
func (h *SettingsHandler) GetSetting(c *fiber.Ctx) error {
	setting, err := h.settingsService.Get(c.UserContext(), c.Params("key"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(setting)
}

// UpdateSetting handles PUT /v1/admin/settings/:key
func (h *SettingsHandler) UpdateSetting(c *fiber.Ctx) error {
	var req dto.SettingRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	setting, err := h.settingsService.Update(c.UserContext(), middleware.GetActor(c), c.Params("key"), req.Value)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(setting)
}
