package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/pkg/pagination"
)

// AccountsHandler handles customer account endpoints
type AccountsHandler struct {
	accountService AccountService
	logger         *zap.Logger
}

// NewAccountsHandler creates a new accounts handler
func NewAccountsHandler(accountService AccountService, logger *zap.Logger) *AccountsHandler {
	return &AccountsHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// ListAccounts handles GET /v1/accounts
func (h *AccountsHandler) ListAccounts(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	accounts, err := h.accountService.List(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"accounts": accounts})
}

// GetAccount handles GET /v1/accounts/:id
func (h *AccountsHandler) GetAccount(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	account, err := h.accountService.Get(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(account)
}

// ListEntries handles GET /v1/accounts/:id/entries?cursor=&limit=
func (h *AccountsHandler) ListEntries(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	limit := pagination.ClampLimit(parseQueryInt(c, "limit", pagination.DefaultLimit))
	list, err := h.accountService.Entries(c.UserContext(), &userID, id, c.Query("cursor"), limit)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(list)
}
