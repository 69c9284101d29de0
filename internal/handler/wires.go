package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	"github.com/ledgerline/ledgerline/internal/dto"
	"github.com/ledgerline/ledgerline/internal/middleware"
)

// WiresHandler handles wire transfer endpoints
type WiresHandler struct {
	wireService WireService
	logger      *zap.Logger
}

// NewWiresHandler creates a new wires handler
func NewWiresHandler(wireService WireService, logger *zap.Logger) *WiresHandler {
	return &WiresHandler{
		wireService: wireService,
		logger:      logger,
	}
}

// CreateWire handles POST /v1/wires
func (h *WiresHandler) CreateWire(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.WireRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	wire, err := h.wireService.Create(c.UserContext(), userID, req.ToInput())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(wire)
}

// ListWires handles GET /v1/wires
func (h *WiresHandler) ListWires(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	p := ParsePagination(c, maxPageSize)
	filter := wireFilter(c)
	filter.UserID = &userID

	wires, total, err := h.wireService.List(c.UserContext(), filter, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(newListResponse(wires, total, p))
}

// GetWire handles GET /v1/wires/:id
func (h *WiresHandler) GetWire(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	wire, err := h.wireService.Get(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(wire)
}

// CancelWire handles POST /v1/wires/:id/cancel
func (h *WiresHandler) CancelWire(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	wire, err := h.wireService.Cancel(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(wire)
}

// AdminListWires handles GET /v1/admin/wires
func (h *WiresHandler) AdminListWires(c *fiber.Ctx) error {
	p := ParsePagination(c, maxPageSize)
	filter := wireFilter(c)
	filter.UserID = parseQueryUUID(c, "userId")

	wires, total, err := h.wireService.List(c.UserContext(), filter, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(newListResponse(wires, total, p))
}

// AdminGetWire handles GET /v1/admin/wires/:id
func (h *WiresHandler) AdminGetWire(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	wire, err := h.wireService.GetAny(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(wire)
}

// CompleteWire handles POST /v1/admin/wires/:id/complete
func (h *WiresHandler) CompleteWire(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	wire, err := h.wireService.Complete(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(wire)
}

// RejectWire handles POST /v1/admin/wires/:id/reject
func (h *WiresHandler) RejectWire(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.ReasonRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	wire, err := h.wireService.Reject(c.UserContext(), middleware.GetActor(c), id, req.Reason)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(wire)
}

func wireFilter(c *fiber.Ctx) domain.WireFilter {
	return domain.WireFilter{
		Status: parseQueryEnum[domain.WireStatus](c, "status"),
		Type:   parseQueryEnum[domain.WireType](c, "type"),
	}
}
