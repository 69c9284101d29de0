package handler

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
	"github.com/ledgerline/ledgerline/internal/testutil"
)

func setupWiresTestApp(mockSvc *MockWireService, userID uuid.UUID) *fiber.App {
	app := fiber.New()
	app.Use(testutil.TestUserMiddleware(userID))

	h := NewWiresHandler(mockSvc, zap.NewNop())
	app.Post("/wires", h.CreateWire)
	app.Get("/wires", h.ListWires)
	app.Post("/wires/:id/cancel", h.CancelWire)
	app.Post("/admin/wires/:id/reject", h.RejectWire)
	return app
}

func domesticWire(accountID uuid.UUID) map[string]any {
	return map[string]any{
		"accountId":          accountID,
		"amount":             "1000.00",
		"type":               "domestic",
		"beneficiaryName":    "Jane Roe",
		"bankName":           "First Bank",
		"beneficiaryAccount": "123456789",
		"routingNumber":      "021000021",
	}
}

func TestWiresHandler_CreateWire(t *testing.T) {
	userID := uuid.New()
	accountID := uuid.New()

	t.Run("domestic wire", func(t *testing.T) {
		mockSvc := new(MockWireService)
		app := setupWiresTestApp(mockSvc, userID)

		mockSvc.On("Create", mock.Anything, userID, mock.MatchedBy(func(in *domain.WireInput) bool {
			return in.Type == domain.WireTypeDomestic && in.RoutingNumber == "021000021" && in.AccountID == accountID
		})).Return(testutil.NewTestWire(userID, accountID), nil)

		resp, body := doRequest(t, app, http.MethodPost, "/wires", domesticWire(accountID))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "WT-20240315-ABC123", body["reference"])
		assert.Equal(t, "pending", body["status"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("bad routing checksum", func(t *testing.T) {
		mockSvc := new(MockWireService)
		app := setupWiresTestApp(mockSvc, userID)

		req := domesticWire(accountID)
		req["routingNumber"] = "021000022"
		resp, body := doRequest(t, app, http.MethodPost, "/wires", req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["details"], "routingNumber")
		mockSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("international wire requires a SWIFT code", func(t *testing.T) {
		mockSvc := new(MockWireService)
		app := setupWiresTestApp(mockSvc, userID)

		req := domesticWire(accountID)
		req["type"] = "international"
		delete(req, "routingNumber")
		resp, body := doRequest(t, app, http.MethodPost, "/wires", req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["details"], "swiftCode")
	})

	t.Run("over the daily limit", func(t *testing.T) {
		mockSvc := new(MockWireService)
		app := setupWiresTestApp(mockSvc, userID)

		mockSvc.On("Create", mock.Anything, userID, mock.Anything).
			Return(nil, apperrors.LimitExceeded("wire would exceed the 24 hour limit"))

		resp, body := doRequest(t, app, http.MethodPost, "/wires", domesticWire(accountID))

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, apperrors.CodeLimitExceeded, body["code"])
	})
}

func TestWiresHandler_ListWires(t *testing.T) {
	userID := uuid.New()
	mockSvc := new(MockWireService)
	app := setupWiresTestApp(mockSvc, userID)

	wireType := domain.WireTypeInternational
	mockSvc.On("List", mock.Anything, domain.WireFilter{UserID: &userID, Type: &wireType}, 50, 0).
		Return([]domain.WireTransfer{}, 0, nil)

	resp, _ := doRequest(t, app, http.MethodGet, "/wires?type=international", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	mockSvc.AssertExpectations(t)
}

func TestWiresHandler_CancelWire(t *testing.T) {
	userID := uuid.New()
	mockSvc := new(MockWireService)
	app := setupWiresTestApp(mockSvc, userID)

	id := uuid.New()
	mockSvc.On("Cancel", mock.Anything, userID, id).Return(nil, apperrors.InvalidState("only pending wires can be cancelled"))

	resp, body := doRequest(t, app, http.MethodPost, "/wires/"+id.String()+"/cancel", nil)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, apperrors.CodeInvalidState, body["code"])
}

func TestWiresHandler_RejectWire(t *testing.T) {
	t.Run("requires a reason", func(t *testing.T) {
		mockSvc := new(MockWireService)
		app := setupWiresTestApp(mockSvc, uuid.New())

		resp, _ := doRequest(t, app, http.MethodPost, "/admin/wires/"+uuid.NewString()+"/reject", map[string]string{})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects with the reason", func(t *testing.T) {
		mockSvc := new(MockWireService)
		adminID := uuid.New()
		app := setupWiresTestApp(mockSvc, adminID)

		id := uuid.New()
		wire := testutil.NewTestWire(uuid.New(), uuid.New())
		wire.Status = domain.WireStatusRejected
		mockSvc.On("Reject", mock.Anything, mock.MatchedBy(func(a domain.Actor) bool { return a.ID == adminID }), id, "beneficiary mismatch").
			Return(wire, nil)

		resp, body := doRequest(t, app, http.MethodPost, "/admin/wires/"+id.String()+"/reject", map[string]string{"reason": "beneficiary mismatch"})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "rejected", body["status"])
		mockSvc.AssertExpectations(t)
	})
}
