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

type adminMocks struct {
	admin    *MockAdminService
	accounts *MockAccountService
	settings *MockSettingsService
}

func setupAdminTestApp(adminID uuid.UUID) (*fiber.App, adminMocks) {
	m := adminMocks{
		admin:    new(MockAdminService),
		accounts: new(MockAccountService),
		settings: new(MockSettingsService),
	}

	app := fiber.New()
	app.Use(testutil.TestAdminMiddleware(adminID))

	h := NewAdminHandler(m.admin, m.accounts, zap.NewNop())
	app.Get("/admin/dashboard", h.Dashboard)
	app.Get("/admin/users", h.ListUsers)
	app.Get("/admin/users/:id", h.GetUser)
	app.Put("/admin/users/:id/status", h.SetUserStatus)
	app.Put("/admin/users/:id/role", h.SetUserRole)
	app.Post("/admin/accounts/:id/adjustments", h.AdjustBalance)
	app.Put("/admin/accounts/:id/status", h.SetAccountStatus)
	app.Get("/admin/accounts/:id/entries", h.ListEntries)

	s := NewSettingsHandler(m.settings, zap.NewNop())
	app.Get("/admin/settings", s.ListSettings)
	app.Put("/admin/settings/:key", s.UpdateSetting)
	return app, m
}

func TestAdminHandler_Dashboard(t *testing.T) {
	app, m := setupAdminTestApp(uuid.New())

	m.admin.On("Dashboard", mock.Anything, defaultDashboardDays).Return(&domain.Dashboard{
		Counts:        domain.DashboardCounts{PendingLoans: 3},
		TotalBalances: decimal.RequireFromString("1234.56"),
		VolumeSource:  "postgres",
	}, nil)
	m.admin.On("Dashboard", mock.Anything, 7).Return(&domain.Dashboard{VolumeSource: "clickhouse"}, nil)

	resp, body := doRequest(t, app, http.MethodGet, "/admin/dashboard", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1234.56", body["totalBalances"])

	_, body = doRequest(t, app, http.MethodGet, "/admin/dashboard?days=7", nil)
	assert.Equal(t, "clickhouse", body["volumeSource"])
	m.admin.AssertExpectations(t)
}

func TestAdminHandler_ListUsers(t *testing.T) {
	app, m := setupAdminTestApp(uuid.New())

	status := domain.UserStatusSuspended
	m.admin.On("ListUsers", mock.Anything, domain.UserFilter{Query: "roe", Status: &status}, 20, 40).
		Return([]domain.User{*testutil.NewTestUser()}, 41, nil)

	resp, body := doRequest(t, app, http.MethodGet, "/admin/users?q=roe&status=suspended&limit=20&offset=40", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(41), body["total"])
	assert.Equal(t, float64(40), body["offset"])
	m.admin.AssertExpectations(t)
}

func TestAdminHandler_GetUser(t *testing.T) {
	app, m := setupAdminTestApp(uuid.New())

	user := testutil.NewTestUser()
	account := testutil.NewTestAccount(user.ID, "250.00")
	m.admin.On("GetUser", mock.Anything, user.ID).Return(user, nil)
	m.accounts.On("List", mock.Anything, user.ID).Return([]domain.Account{*account}, nil)

	resp, body := doRequest(t, app, http.MethodGet, "/admin/users/"+user.ID.String(), nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["accounts"], 1)
}

func TestAdminHandler_SetUserStatus(t *testing.T) {
	adminID := uuid.New()

	t.Run("suspends the user", func(t *testing.T) {
		app, m := setupAdminTestApp(adminID)

		user := testutil.NewTestUser()
		user.Status = domain.UserStatusSuspended
		m.admin.On("SetUserStatus", mock.Anything, mock.MatchedBy(func(a domain.Actor) bool {
			return a.ID == adminID && a.Email == "admin@example.com"
		}), user.ID, domain.UserStatusSuspended).Return(user, nil)

		resp, body := doRequest(t, app, http.MethodPut, "/admin/users/"+user.ID.String()+"/status", map[string]string{"status": "suspended"})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "suspended", body["status"])
	})

	t.Run("unknown status", func(t *testing.T) {
		app, m := setupAdminTestApp(adminID)

		resp, _ := doRequest(t, app, http.MethodPut, "/admin/users/"+uuid.NewString()+"/status", map[string]string{"status": "deleted"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		m.admin.AssertNotCalled(t, "SetUserStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cannot suspend yourself", func(t *testing.T) {
		app, m := setupAdminTestApp(adminID)

		m.admin.On("SetUserStatus", mock.Anything, mock.Anything, adminID, domain.UserStatusSuspended).
			Return(nil, apperrors.Forbidden("admins cannot change their own status"))

		resp, _ := doRequest(t, app, http.MethodPut, "/admin/users/"+adminID.String()+"/status", map[string]string{"status": "suspended"})

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestAdminHandler_AdjustBalance(t *testing.T) {
	app, m := setupAdminTestApp(uuid.New())

	accountID := uuid.New()
	m.accounts.On("Adjust", mock.Anything, mock.Anything, accountID, &domain.AdjustmentInput{
		Direction: domain.DirectionDebit,
		Amount:    decimal.RequireFromString("15.00"),
		Reason:    "chargeback",
	}).Return(&domain.LedgerEntry{ID: uuid.New(), AccountID: accountID, Direction: domain.DirectionDebit}, nil)

	resp, body := doRequest(t, app, http.MethodPost, "/admin/accounts/"+accountID.String()+"/adjustments", map[string]string{
		"direction": "debit",
		"amount":    "15.00",
		"reason":    "chargeback",
	})

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "debit", body["direction"])
	m.accounts.AssertExpectations(t)
}

func TestAdminHandler_ListEntries(t *testing.T) {
	app, m := setupAdminTestApp(uuid.New())

	accountID := uuid.New()
	m.accounts.On("Entries", mock.Anything, (*uuid.UUID)(nil), accountID, "abc", 200).
		Return(&domain.LedgerEntryList{Entries: []domain.LedgerEntry{}}, nil)

	resp, _ := doRequest(t, app, http.MethodGet, "/admin/accounts/"+accountID.String()+"/entries?cursor=abc&limit=1000", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	m.accounts.AssertExpectations(t)
}

func TestAdminHandler_UpdateSetting(t *testing.T) {
	t.Run("unknown key", func(t *testing.T) {
		app, m := setupAdminTestApp(uuid.New())

		m.settings.On("Update", mock.Anything, mock.Anything, "no.such.key", "1").
			Return(nil, apperrors.NotFound("setting"))

		resp, _ := doRequest(t, app, http.MethodPut, "/admin/settings/no.such.key", map[string]string{"value": "1"})

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("updates the value", func(t *testing.T) {
		app, m := setupAdminTestApp(uuid.New())

		m.settings.On("Update", mock.Anything, mock.Anything, domain.SettingMaintenanceMode, "true").
			Return(&domain.Setting{Key: domain.SettingMaintenanceMode, Value: "true", Type: domain.SettingTypeBool}, nil)

		resp, body := doRequest(t, app, http.MethodPut, "/admin/settings/"+domain.SettingMaintenanceMode, map[string]string{"value": "true"})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "true", body["value"])
	})
}
