package handler

import (
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	"github.com/ledgerline/ledgerline/internal/dto"
	"github.com/ledgerline/ledgerline/internal/middleware"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
)

// DepositsHandler handles mobile check deposit endpoints
type DepositsHandler struct {
	depositService DepositService
	logger         *zap.Logger
}

// NewDepositsHandler creates a new deposits handler
func NewDepositsHandler(depositService DepositService, logger *zap.Logger) *DepositsHandler {
	return &DepositsHandler{
		depositService: depositService,
		logger:         logger,
	}
}

// Submit handles POST /v1/deposits (multipart: accountId, amount, checkNumber, front, back)
func (h *DepositsHandler) Submit(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	form, err := parseDepositForm(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if err := dto.Validate(form); err != nil {
		return respondError(c, h.logger, err)
	}

	front, closeFront, err := openCheckImage(c, "front")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	defer closeFront()

	back, closeBack, err := openCheckImage(c, "back")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	defer closeBack()

	dep, err := h.depositService.Submit(c.UserContext(), userID, &domain.DepositInput{
		AccountID:   form.AccountID,
		Amount:      form.Amount,
		CheckNumber: form.CheckNumber,
		Front:       front,
		Back:        back,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dep)
}

func parseDepositForm(c *fiber.Ctx) (*dto.DepositForm, error) {
	form := &dto.DepositForm{CheckNumber: c.FormValue("checkNumber")}

	if raw := c.FormValue("accountId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperrors.Validation("Request validation failed").WithDetail("accountID", "must be a valid id")
		}
		form.AccountID = id
	}
	if raw := c.FormValue("amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, apperrors.Validation("Request validation failed").WithDetail("amount", "must be a decimal amount")
		}
		form.Amount = amount
	}

	return form, nil
}

func openCheckImage(c *fiber.Ctx, field string) (domain.CheckImage, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		return domain.CheckImage{}, func() {}, apperrors.Validation(field + " image is required")
	}

	var file multipart.File
	if file, err = header.Open(); err != nil {
		return domain.CheckImage{}, func() {}, apperrors.BadRequest("could not read " + field + " image")
	}

	return domain.CheckImage{Body: file, Size: header.Size}, func() { _ = file.Close() }, nil
}

// ListDeposits handles GET /v1/deposits
func (h *DepositsHandler) ListDeposits(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	p := ParsePagination(c, maxPageSize)
	filter := domain.DepositFilter{
		UserID: &userID,
		Status: parseQueryEnum[domain.DepositStatus](c, "status"),
	}

	deposits, total, err := h.depositService.List(c.UserContext(), filter, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(newListResponse(deposits, total, p))
}

// GetDeposit handles GET /v1/deposits/:id
func (h *DepositsHandler) GetDeposit(c *fiber.Ctx) error {
	userID, err := RequireUserID(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	dep, err := h.depositService.Get(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(dep)
}

// AdminListDeposits handles GET /v1/admin/deposits
func (h *DepositsHandler) AdminListDeposits(c *fiber.Ctx) error {
	p := ParsePagination(c, maxPageSize)
	filter := domain.DepositFilter{
		UserID: parseQueryUUID(c, "userId"),
		Status: parseQueryEnum[domain.DepositStatus](c, "status"),
	}

	deposits, total, err := h.depositService.List(c.UserContext(), filter, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(newListResponse(deposits, total, p))
}

// AdminGetDeposit handles GET /v1/admin/deposits/:id
func (h *DepositsHandler) AdminGetDeposit(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	dep, err := h.depositService.GetAny(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(dep)
}

// Images handles GET /v1/admin/deposits/:id/images
func (h *DepositsHandler) Images(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	images, err := h.depositService.Images(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(images)
}

// Approve handles POST /v1/admin/deposits/:id/approve
func (h *DepositsHandler) Approve(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	dep, err := h.depositService.Approve(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(dep)
}

// Reject handles POST /v1/admin/deposits/:id/reject
func (h *DepositsHandler) Reject(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req dto.ReasonRequest
	if err := dto.ParseAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	dep, err := h.depositService.Reject(c.UserContext(), middleware.GetActor(c), id, req.Reason)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(dep)
}
