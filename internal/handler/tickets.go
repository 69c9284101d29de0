package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	"github.com/ledgerline/ledgerline/internal/dto"
	"github.com/ledgerline/ledgerline/internal/middleware"
)

// TicketsHandler handles support ticket endpoints
type TicketsHandler struct {
	ticketService TicketService
	logger        *zap.Logger
}

// NewTicketsHandler creates a new tickets handler
func NewTicketsHandler(ticketService TicketService, logger *zap.Logger) *TicketsHandler {
	return &TicketsHandler{
		ticketService: ticketService,
		logger:        logger,
	}
}

// CreateTicket handles POST /v1/tickets
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.TicketRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	ticket, err := h.ticketService.Create(c.UserContext(), userID, req.ToInput())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(ticket)
}

// ListTickets handles GET /v1/tickets
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	p := ParsePagination(c, maxPageSize)
	filter := domain.TicketFilter{
		UserID: &userID,
		Status: parseQueryEnum[domain.TicketStatus](c, "status"),
	}

	tickets, total, err := h.ticketService.List(c.UserContext(), filter, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(newListResponse(tickets, total, p))
}

// GetTicket handles GET /v1/tickets/:id
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	ticket, err := h.ticketService.Get(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(ticket)
}

// Reply handles POST /v1/tickets/:id/messages
func (h *TicketsHandler) Reply(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.MessageRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	msg, err := h.ticketService.Reply(c.UserContext(), userID, id, req.Body)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// AdminListTickets handles GET /v1/admin/tickets?status=&priority=&assignedTo=
func (h *TicketsHandler) AdminListTickets(c *fiber.Ctx) error {
	p := ParsePagination(c, maxPageSize)
	filter := domain.TicketFilter{
		UserID:     parseQueryUUID(c, "userId"),
		Status:     parseQueryEnum[domain.TicketStatus](c, "status"),
		Priority:   parseQueryEnum[domain.TicketPriority](c, "priority"),
		AssignedTo: parseQueryUUID(c, "assignedTo"),
	}

	tickets, total, err := h.ticketService.List(c.UserContext(), filter, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(newListResponse(tickets, total, p))
}

// AdminGetTicket handles GET /v1/admin/tickets/:id
func (h *TicketsHandler) AdminGetTicket(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	ticket, err := h.ticketService.GetAny(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(ticket)
}

// AdminReply handles POST /v1/admin/tickets/:id/messages
func (h *TicketsHandler) AdminReply(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.MessageRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	msg, err := h.ticketService.AdminReply(c.UserContext(), middleware.GetActor(c), id, req.Body)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// Assign handles PUT /v1/admin/tickets/:id/assignee
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.AssignRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	ticket, err := h.ticketService.Assign(c.UserContext(), middleware.GetActor(c), id, req.AssigneeID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(ticket)
}

// SetStatus handles PUT /v1/admin/tickets/:id/status
func (h *TicketsHandler) SetStatus(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.TicketStatusRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	ticket, err := h.ticketService.SetStatus(c.UserContext(), middleware.GetActor(c), id, req.Status)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(ticket)
}
