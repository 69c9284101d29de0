package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	"github.com/ledgerline/ledgerline/internal/dto"
	"github.com/ledgerline/ledgerline/internal/middleware"
	"github.com/ledgerline/ledgerline/internal/pkg/pagination"
)

const defaultDashboardDays = 30

// AdminHandler handles the admin console user, account and dashboard endpoints
type AdminHandler struct {
	adminService   AdminService
	accountService AccountService
	logger         *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService AdminService, accountService AccountService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		adminService:   adminService,
		accountService: accountService,
		logger:         logger,
	}
}

// Dashboard handles GET /v1/admin/dashboard?days=
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	dashboard, err := h.adminService.Dashboard(c.UserContext(), parseQueryInt(c, "days", defaultDashboardDays))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(dashboard)
}

// ListUsers handles GET /v1/admin/users?q=&role=&status=
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	p := ParsePagination(c, maxPageSize)
	filter := domain.UserFilter{
		Query:  c.Query("q"),
		Role:   parseQueryEnum[domain.Role](c, "role"),
		Status: parseQueryEnum[domain.UserStatus](c, "status"),
	}

	users, total, err := h.adminService.ListUsers(c.UserContext(), filter, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(newListResponse(users, total, p))
}

// GetUser handles GET /v1/admin/users/:id
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	user, err := h.adminService.GetUser(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	accounts, err := h.accountService.List(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"user": user, "accounts": accounts})
}

// SetUserStatus handles PUT /v1/admin/users/:id/status
func (h *AdminHandler) SetUserStatus(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.UserStatusRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	user, err := h.adminService.SetUserStatus(c.UserContext(), middleware.GetActor(c), id, req.Status)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(user)
}

// SetUserRole handles PUT /v1/admin/users/:id/role
func (h *AdminHandler) SetUserRole(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.UserRoleRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	user, err := h.adminService.SetUserRole(c.UserContext(), middleware.GetActor(c), id, req.Role)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(user)
}

// GetAccount handles GET /v1/admin/accounts/:id
func (h *AdminHandler) GetAccount(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	account, err := h.accountService.GetAny(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(account)
}

// ListEntries handles GET /v1/admin/accounts/:id/entries
func (h *AdminHandler) ListEntries(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	limit := pagination.ClampLimit(parseQueryInt(c, "limit", pagination.DefaultLimit))
	list, err := h.accountService.Entries(c.UserContext(), nil, id, c.Query("cursor"), limit)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(list)
}

// AdjustBalance handles POST /v1/admin/accounts/:id/adjustments
func (h *AdminHandler) AdjustBalance(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.AdjustmentRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	entry, err := h.accountService.Adjust(c.UserContext(), middleware.GetActor(c), id, req.ToInput())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(entry)
}

// SetAccountStatus handles PUT /v1/admin/accounts/:id/status
func (h *AdminHandler) SetAccountStatus(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.AccountStatusRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	account, err := h.accountService.SetStatus(c.UserContext(), middleware.GetActor(c), id, req.Status)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(account)
}
