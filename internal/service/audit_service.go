package service

import (
	"context"

	"github.com/ledgerline/ledgerline/internal/domain"
)

// AuditRepository defines audit log repository operations
type AuditRepository interface {
	CreateAuditLog(ctx context.Context, input *domain.AuditLogInput) (*domain.AuditLog, error)
	ListAuditLogs(ctx context.Context, filter *domain.AuditLogFilter) (*domain.AuditLogList, error)
}

// AuditService records and lists audit logs
type AuditService struct {
	auditRepo AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo AuditRepository) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
	}
}

// Log creates a new audit log entry
func (s *AuditService) Log(ctx context.Context, input *domain.AuditLogInput) (*domain.AuditLog, error) {
	return s.auditRepo.CreateAuditLog(ctx, input)
}

// List lists audit logs with filters
func (s *AuditService) List(ctx context.Context, filter *domain.AuditLogFilter) (*domain.AuditLogList, error) {
	return s.auditRepo.ListAuditLogs(ctx, filter)
}
