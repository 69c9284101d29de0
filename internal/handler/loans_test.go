package handler

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
	"github.com/ledgerline/ledgerline/internal/testutil"
)

func setupLoansTestApp(mockSvc *MockLoanService, userID uuid.UUID) *fiber.App {
	app := fiber.New()
	app.Use(testutil.TestUserMiddleware(userID))

	h := NewLoansHandler(mockSvc, zap.NewNop())
	app.Post("/loans", h.Apply)
	app.Get("/loans", h.ListLoans)
	app.Get("/loans/:id", h.GetLoan)
	app.Post("/loans/:id/repay", h.Repay)
	app.Get("/admin/loans", h.AdminListLoans)
	app.Post("/admin/loans/:id/review", h.Review)
	app.Post("/admin/loans/:id/disburse", h.Disburse)
	return app
}

func TestLoansHandler_Apply(t *testing.T) {
	userID := uuid.New()
	accountID := uuid.New()

	t.Run("submits the application", func(t *testing.T) {
		mockSvc := new(MockLoanService)
		app := setupLoansTestApp(mockSvc, userID)

		loan := testutil.NewTestLoan(userID, accountID)
		mockSvc.On("Apply", mock.Anything, userID, mock.MatchedBy(func(in *domain.LoanApplication) bool {
			return in.AccountID == accountID && in.Amount.Equal(decimal.NewFromInt(10000)) &&
				in.TermMonths == 12 && in.CreditScore == 780 && in.MonthlyIncome == nil
		})).Return(loan, nil)

		resp, body := doRequest(t, app, http.MethodPost, "/loans", map[string]any{
			"accountId":   accountID,
			"amount":      "10000",
			"termMonths":  12,
			"creditScore": 780,
		})

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "approved", body["status"])
		assert.Equal(t, "9500", body["approvedAmount"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("rejects unsupported terms", func(t *testing.T) {
		mockSvc := new(MockLoanService)
		app := setupLoansTestApp(mockSvc, userID)

		resp, body := doRequest(t, app, http.MethodPost, "/loans", map[string]any{
			"accountId":   accountID,
			"amount":      "10000",
			"termMonths":  18,
			"creditScore": 780,
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["details"], "termMonths")
	})

	t.Run("rejects fractional cents", func(t *testing.T) {
		mockSvc := new(MockLoanService)
		app := setupLoansTestApp(mockSvc, userID)

		resp, _ := doRequest(t, app, http.MethodPost, "/loans", map[string]any{
			"accountId":   accountID,
			"amount":      "1000.001",
			"termMonths":  12,
			"creditScore": 700,
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		mockSvc.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLoansHandler_GetLoan(t *testing.T) {
	userID := uuid.New()

	t.Run("invalid id", func(t *testing.T) {
		app := setupLoansTestApp(new(MockLoanService), userID)

		resp, _ := doRequest(t, app, http.MethodGet, "/loans/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("someone else's loan is not found", func(t *testing.T) {
		mockSvc := new(MockLoanService)
		app := setupLoansTestApp(mockSvc, userID)

		id := uuid.New()
		mockSvc.On("Get", mock.Anything, userID, id).Return(nil, apperrors.NotFound("loan"))

		resp, _ := doRequest(t, app, http.MethodGet, "/loans/"+id.String(), nil)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestLoansHandler_ListLoans(t *testing.T) {
	userID := uuid.New()
	mockSvc := new(MockLoanService)
	app := setupLoansTestApp(mockSvc, userID)

	status := domain.LoanStatusActive
	mockSvc.On("List", mock.Anything, domain.LoanFilter{UserID: &userID, Status: &status}, 10, 0).
		Return([]domain.Loan{*testutil.NewTestLoan(userID, uuid.New())}, 1, nil)

	resp, body := doRequest(t, app, http.MethodGet, "/loans?status=active&limit=10", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total"])
	assert.Len(t, body["items"], 1)
	mockSvc.AssertExpectations(t)
}

func TestLoansHandler_Repay(t *testing.T) {
	userID := uuid.New()
	id := uuid.New()

	t.Run("without a body uses the scheduled payment", func(t *testing.T) {
		mockSvc := new(MockLoanService)
		app := setupLoansTestApp(mockSvc, userID)

		loan := testutil.NewTestLoan(userID, uuid.New())
		mockSvc.On("Repay", mock.Anything, userID, id, (*decimal.Decimal)(nil)).Return(loan, nil)

		resp, _ := doRequest(t, app, http.MethodPost, "/loans/"+id.String()+"/repay", nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		mockSvc := new(MockLoanService)
		app := setupLoansTestApp(mockSvc, userID)

		mockSvc.On("Repay", mock.Anything, userID, id, mock.MatchedBy(func(a *decimal.Decimal) bool {
			return a != nil && a.Equal(decimal.RequireFromString("250.50"))
		})).Return(nil, apperrors.InsufficientFunds(""))

		resp, body := doRequest(t, app, http.MethodPost, "/loans/"+id.String()+"/repay", map[string]string{"amount": "250.50"})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, apperrors.CodeInsufficientFunds, body["code"])
	})
}

func TestLoansHandler_Review(t *testing.T) {
	mockSvc := new(MockLoanService)
	adminID := uuid.New()
	app := setupLoansTestApp(mockSvc, adminID)

	id := uuid.New()
	mockSvc.On("Review", mock.Anything, mock.MatchedBy(func(a domain.Actor) bool { return a.ID == adminID }), id,
		mock.MatchedBy(func(in *domain.LoanReviewInput) bool {
			return in.Status != nil && *in.Status == domain.LoanStatusApproved &&
				in.ApprovedAmount != nil && in.ApprovedAmount.Equal(decimal.NewFromInt(5000)) &&
				in.Reason == "manual override"
		})).Return(testutil.NewTestLoan(uuid.New(), uuid.New()), nil)

	resp, _ := doRequest(t, app, http.MethodPost, "/admin/loans/"+id.String()+"/review", map[string]any{
		"status":         "approved",
		"approvedAmount": "5000",
		"reason":         "manual override",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	mockSvc.AssertExpectations(t)
}

func TestLoansHandler_AdminListLoans(t *testing.T) {
	mockSvc := new(MockLoanService)
	app := setupLoansTestApp(mockSvc, uuid.New())

	overdue := true
	mockSvc.On("List", mock.Anything, domain.LoanFilter{Overdue: &overdue}, 50, 0).Return([]domain.Loan{}, 0, nil)

	resp, body := doRequest(t, app, http.MethodGet, "/admin/loans?overdue=true", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, body["items"])
	mockSvc.AssertExpectations(t)
}
