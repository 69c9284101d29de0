package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/dto"
	"github.com/ledgerline/ledgerline/internal/middleware"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.authService.Register(c.UserContext(), req.ToInput(), middleware.GetActor(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.authService.Login(c.UserContext(), req.ToInput(c.Get(fiber.HeaderUserAgent), c.IP()))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(result)
}

// Refresh handles POST /v1/auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.authService.Refresh(c.UserContext(), req.RefreshToken, middleware.GetActor(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(result)
}

// Logout handles POST /v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	if err := h.authService.Logout(c.UserContext(), req.RefreshToken); err != nil {
		return respondError(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	user, err := h.authService.Me(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(user)
}

// ChangePassword handles POST /v1/auth/password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	if _, err := RequireUserID(c); err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.ChangePasswordRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	if err := h.authService.ChangePassword(c.UserContext(), middleware.GetActor(c), req.OldPassword, req.NewPassword); err != nil {
		return respondError(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
