package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/domain"
)

// MockAuditRepository is a mock implementation of AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) CreateAuditLog(ctx context.Context, input *domain.AuditLogInput) (*domain.AuditLog, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditLog), args.Error(1)
}

func (m *MockAuditRepository) ListAuditLogs(ctx context.Context, filter *domain.AuditLogFilter) (*domain.AuditLogList, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditLogList), args.Error(1)
}

func TestAuditService_Log(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo)

	input := domain.Actor{ID: uuid.New(), Email: "admin@bank.test"}.AuditInput(
		domain.AuditActionUserRoleChanged, domain.AuditResourceUser, "u1", "promoted")
	repo.On("CreateAuditLog", mock.Anything, &input).Return(&domain.AuditLog{Action: input.Action}, nil)

	log, err := svc.Log(context.Background(), &input)
	require.NoError(t, err)
	assert.Equal(t, domain.AuditActionUserRoleChanged, log.Action)
	repo.AssertExpectations(t)
}
