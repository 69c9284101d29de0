package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ledgerline/ledgerline/internal/domain"
)

const maxAuditPage = 1000

// AuditRepository stores the admin audit trail through sqlx
type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

type auditRow struct {
	domain.AuditLog
	MetadataJSON []byte `db:"metadata"`
}

// CreateAuditLog creates a new audit log entry
func (r *AuditRepository) CreateAuditLog(ctx context.Context, input *domain.AuditLogInput) (*domain.AuditLog, error) {
	id := uuid.New()
	now := time.Now().UTC()

	metadataJSON, err := json.Marshal(input.Metadata)
	if err != nil || input.Metadata == nil {
		metadataJSON = []byte("{}")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (
			id, actor_id, actor_email, action, resource_type, resource_id,
			description, metadata, ip_address, user_agent, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		id, input.ActorID, input.ActorEmail, input.Action, input.ResourceType, input.ResourceID,
		input.Description, metadataJSON, input.IPAddress, input.UserAgent, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit log: %w", err)
	}

	return &domain.AuditLog{
		ID:           id,
		ActorID:      input.ActorID,
		ActorEmail:   input.ActorEmail,
		Action:       input.Action,
		ResourceType: input.ResourceType,
		ResourceID:   input.ResourceID,
		Description:  input.Description,
		Metadata:     input.Metadata,
		IPAddress:    input.IPAddress,
		UserAgent:    input.UserAgent,
		CreatedAt:    now,
	}, nil
}

// ListAuditLogs retrieves audit logs with filtering and pagination
func (r *AuditRepository) ListAuditLogs(ctx context.Context, filter *domain.AuditLogFilter) (*domain.AuditLogList, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.ActorID != nil {
		conditions = append(conditions, fmt.Sprintf("actor_id = $%d", argNum))
		args = append(args, *filter.ActorID)
		argNum++
	}

	if filter.Action != nil {
		conditions = append(conditions, fmt.Sprintf("action = $%d", argNum))
		args = append(args, *filter.Action)
		argNum++
	}

	if filter.ResourceType != nil {
		conditions = append(conditions, fmt.Sprintf("resource_type = $%d", argNum))
		args = append(args, *filter.ResourceType)
		argNum++
	}

	if filter.ResourceID != "" {
		conditions = append(conditions, fmt.Sprintf("resource_id = $%d", argNum))
		args = append(args, filter.ResourceID)
		argNum++
	}

	if filter.StartTime != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argNum))
		args = append(args, *filter.StartTime)
		argNum++
	}

	if filter.EndTime != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argNum))
		args = append(args, *filter.EndTime)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, "SELECT COUNT(*) FROM audit_logs "+whereClause, args...); err != nil {
		return nil, fmt.Errorf("failed to count audit logs: %w", err)
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= maxAuditPage {
		limit = filter.Limit
	}

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	dataQuery := fmt.Sprintf(`
		SELECT id, actor_id, actor_email, action, resource_type, resource_id,
			description, metadata, ip_address, user_agent, created_at
		FROM audit_logs
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argNum, argNum+1)

	args = append(args, limit, offset)

	var rows []auditRow
	if err := r.db.SelectContext(ctx, &rows, dataQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	logs := make([]domain.AuditLog, 0, len(rows))
	for _, row := range rows {
		log := row.AuditLog
		if len(row.MetadataJSON) > 0 {
			_ = json.Unmarshal(row.MetadataJSON, &log.Metadata)
		}
		logs = append(logs, log)
	}

	return &domain.AuditLogList{
		Data:       logs,
		TotalCount: totalCount,
		HasMore:    offset+len(logs) < totalCount,
	}, nil
}
