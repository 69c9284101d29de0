package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	"github.com/ledgerline/ledgerline/internal/dto"
	"github.com/ledgerline/ledgerline/internal/middleware"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
)

// CryptoHandler handles crypto trading endpoints
type CryptoHandler struct {
	cryptoService CryptoService
	quotes        QuoteService
	logger        *zap.Logger
}

// NewCryptoHandler creates a new crypto handler
func NewCryptoHandler(cryptoService CryptoService, quotes QuoteService, logger *zap.Logger) *CryptoHandler {
	return &CryptoHandler{
		cryptoService: cryptoService,
		quotes:        quotes,
		logger:        logger,
	}
}

// ListAssets handles GET /v1/crypto/assets
func (h *CryptoHandler) ListAssets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"assets": h.cryptoService.Assets(c.UserContext())})
}

// GetQuote handles GET /v1/crypto/quotes/:asset
func (h *CryptoHandler) GetQuote(c *fiber.Ctx) error {
	asset := strings.ToUpper(c.Params("asset"))
	if !h.supported(c, asset) {
		return respondError(c, h.logger, apperrors.NotFound("asset"))
	}

	quote, err := h.quotes.Quote(c.UserContext(), asset)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(quote)
}

func (h *CryptoHandler) supported(c *fiber.Ctx, asset string) bool {
	for _, a := range h.cryptoService.Assets(c.UserContext()) {
		if a == asset {
			return true
		}
	}
	return false
}

// Buy handles POST /v1/crypto/buy
func (h *CryptoHandler) Buy(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.BuyRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	tx, err := h.cryptoService.Buy(c.UserContext(), userID, req.ToInput())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(tx)
}

// Sell handles POST /v1/crypto/sell
func (h *CryptoHandler) Sell(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.SellRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	tx, err := h.cryptoService.Sell(c.UserContext(), userID, req.ToInput())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(tx)
}

// Portfolio handles GET /v1/crypto/portfolio
func (h *CryptoHandler) Portfolio(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	portfolio, err := h.cryptoService.Portfolio(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(portfolio)
}

// ListTransactions handles GET /v1/crypto/transactions
func (h *CryptoHandler) ListTransactions(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	p := ParsePagination(c, maxPageSize)
	filter := cryptoFilter(c)
	filter.UserID = &userID

	txs, total, err := h.cryptoService.ListTransactions(c.UserContext(), filter, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(newListResponse(txs, total, p))
}

// GetTransaction handles GET /v1/crypto/transactions/:id
func (h *CryptoHandler) GetTransaction(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	tx, err := h.cryptoService.Get(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(tx)
}

// Cancel handles POST /v1/crypto/transactions/:id/cancel
func (h *CryptoHandler) Cancel(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	tx, err := h.cryptoService.Cancel(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(tx)
}

// AdminListTransactions handles GET /v1/admin/crypto/transactions
func (h *CryptoHandler) AdminListTransactions(c *fiber.Ctx) error {
	p := ParsePagination(c, maxPageSize)
	filter := cryptoFilter(c)
	filter.UserID = parseQueryUUID(c, "userId")

	txs, total, err := h.cryptoService.ListTransactions(c.UserContext(), filter, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(newListResponse(txs, total, p))
}

// Settle handles POST /v1/admin/crypto/transactions/:id/settle
func (h *CryptoHandler) Settle(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	tx, err := h.cryptoService.Settle(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(tx)
}

// Reject handles POST /v1/admin/crypto/transactions/:id/reject
func (h *CryptoHandler) Reject(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.ReasonRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	tx, err := h.cryptoService.Reject(c.UserContext(), middleware.GetActor(c), id, req.Reason)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(tx)
}

func cryptoFilter(c *fiber.Ctx) domain.CryptoFilter {
	return domain.CryptoFilter{
		Status: parseQueryEnum[domain.CryptoStatus](c, "status"),
		Side:   parseQueryEnum[domain.CryptoSide](c, "side"),
		Asset:  strings.ToUpper(c.Query("asset")),
	}
}
