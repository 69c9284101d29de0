package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
)

// AuditHandler serves the admin audit log
type AuditHandler struct {
	auditService AuditService
	logger       *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// ListAuditLogs handles GET /v1/admin/audit-logs
//
// Query: actor_id, action, resource_type, resource_id, start_time and
// end_time (RFC3339), limit (max 100), offset.
func (h *AuditHandler) ListAuditLogs(c *fiber.Ctx) error {
	p := ParsePagination(c, maxPageSize)
	filter := &domain.AuditLogFilter{
		ActorID:      parseQueryUUID(c, "actor_id"),
		Action:       parseQueryEnum[domain.AuditAction](c, "action"),
		ResourceType: parseQueryEnum[domain.AuditResourceType](c, "resource_type"),
		ResourceID:   c.Query("resource_id"),
		Limit:        p.Limit,
		Offset:       p.Offset,
	}

	var err error
	if filter.StartTime, err = parseQueryTime(c, "start_time"); err != nil {
		return respondError(c, h.logger, err)
	}
	if filter.EndTime, err = parseQueryTime(c, "end_time"); err != nil {
		return respondError(c, h.logger, err)
	}

	list, err := h.auditService.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(list)
}

func parseQueryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperrors.BadRequest(key + " must be an RFC3339 timestamp")
	}
	return &t, nil
}
