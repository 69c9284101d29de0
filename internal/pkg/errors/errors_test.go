package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	t.Run("without wrapped error", func(t *testing.T) {
		err := NotFound("loan")
		assert.Equal(t, "NOT_FOUND: loan not found", err.Error())
	})

	t.Run("with wrapped error", func(t *testing.T) {
		err := Internal("boom").WithError(errors.New("db down"))
		assert.Equal(t, "INTERNAL_ERROR: boom (db down)", err.Error())
		assert.EqualError(t, errors.Unwrap(err), "db down")
	})
}

func TestBankingCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
		check  func(error) bool
	}{
		{"insufficient funds", InsufficientFunds(""), http.StatusUnprocessableEntity, IsInsufficientFunds},
		{"limit exceeded", LimitExceeded("daily wire limit"), http.StatusUnprocessableEntity, IsLimitExceeded},
		{"invalid state", InvalidState("loan is not active"), http.StatusConflict, IsInvalidState},
		{"not found", NotFound("wire"), http.StatusNotFound, IsNotFound},
		{"validation", Validation("bad"), http.StatusBadRequest, IsValidation},
		{"forbidden", Forbidden(""), http.StatusForbidden, IsForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("service: %w", tt.err)
			assert.True(t, tt.check(wrapped))
			assert.Equal(t, tt.status, GetStatusCode(wrapped))
		})
	}
}

func TestGetStatusCode_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(errors.New("plain")))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestWithDetail(t *testing.T) {
	err := LimitExceeded("over limit").WithDetail("limit", "5000.00")
	assert.Equal(t, "5000.00", err.Details["limit"])
}
