package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	"github.com/ledgerline/ledgerline/internal/dto"
	"github.com/ledgerline/ledgerline/internal/middleware"
)

// LoansHandler handles loan endpoints for customers and admins
type LoansHandler struct {
	loanService LoanService
	logger      *zap.Logger
}

// NewLoansHandler creates a new loans handler
func NewLoansHandler(loanService LoanService, logger *zap.Logger) *LoansHandler {
	return &LoansHandler{
		loanService: loanService,
		logger:      logger,
	}
}

// Apply handles POST /v1/loans
func (h *LoansHandler) Apply(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.LoanApplicationRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	loan, err := h.loanService.Apply(c.UserContext(), userID, req.ToInput())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(loan)
}

// ListLoans handles GET /v1/loans
func (h *LoansHandler) ListLoans(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	p := ParsePagination(c, maxPageSize)
	filter := domain.LoanFilter{
		UserID: &userID,
		Status: parseQueryEnum[domain.LoanStatus](c, "status"),
	}

	loans, total, err := h.loanService.List(c.UserContext(), filter, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(newListResponse(loans, total, p))
}

// GetLoan handles GET /v1/loans/:id
func (h *LoansHandler) GetLoan(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	loan, err := h.loanService.Get(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(loan)
}

// Decline handles POST /v1/loans/:id/decline
func (h *LoansHandler) Decline(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	loan, err := h.loanService.Decline(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(loan)
}

// Repay handles POST /v1/loans/:id/repay
func (h *LoansHandler) Repay(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.LoanRepaymentRequest
	if len(c.Body()) > 0 {
		if err := dto.ParseAndValidate(c, &req); err != nil {
			return respondError(c, h.logger, err)
		}
	}

	loan, err := h.loanService.Repay(c.UserContext(), userID, id, req.Amount)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(loan)
}

// AdminListLoans handles GET /v1/admin/loans?status=&overdue=&userId=
func (h *LoansHandler) AdminListLoans(c *fiber.Ctx) error {
	p := ParsePagination(c, maxPageSize)
	filter := domain.LoanFilter{
		UserID: parseQueryUUID(c, "userId"),
		Status: parseQueryEnum[domain.LoanStatus](c, "status"),
	}
	if c.Query("overdue") != "" {
		overdue := c.QueryBool("overdue")
		filter.Overdue = &overdue
	}

	loans, total, err := h.loanService.List(c.UserContext(), filter, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(newListResponse(loans, total, p))
}

// AdminGetLoan handles GET /v1/admin/loans/:id
func (h *LoansHandler) AdminGetLoan(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	loan, err := h.loanService.GetAny(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(loan)
}

// Review handles POST /v1/admin/loans/:id/review
func (h *LoansHandler) Review(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.LoanReviewRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	loan, err := h.loanService.Review(c.UserContext(), middleware.GetActor(c), id, req.ToInput())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(loan)
}

// Disburse handles POST /v1/admin/loans/:id/disburse
func (h *LoansHandler) Disburse(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	loan, err := h.loanService.Disburse(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(loan)
}
