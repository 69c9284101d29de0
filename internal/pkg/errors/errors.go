package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeInternal          = "INTERNAL_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION_ERROR"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeConflict          = "CONFLICT"
	CodeRateLimited       = "RATE_LIMITED"
	CodeBadRequest        = "BAD_REQUEST"
	CodeUnprocessable     = "UNPROCESSABLE_ENTITY"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeLimitExceeded     = "LIMIT_EXCEEDED"
	CodeInvalidState      = "INVALID_STATE"
	CodeUnavailable       = "SERVICE_UNAVAILABLE"
)

// AppError represents an application error with context
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	StatusCode int               `json:"-"`
	Err        error             `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithError wraps an underlying error
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Internal creates an internal server error
func Internal(message string) *AppError {
	return New(CodeInternal, message, http.StatusInternalServerError)
}

// NotFound creates a not found error
func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// Validation creates a validation error
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

// Forbidden creates a forbidden error
func Forbidden(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return New(CodeForbidden, message, http.StatusForbidden)
}

// Conflict creates a conflict error
func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

// RateLimited creates a rate limited error
func RateLimited() *AppError {
	return New(CodeRateLimited, "rate limit exceeded", http.StatusTooManyRequests)
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message, http.StatusBadRequest)
}

// Unprocessable creates an unprocessable entity error
func Unprocessable(message string) *AppError {
	return New(CodeUnprocessable, message, http.StatusUnprocessableEntity)
}

// InsufficientFunds is returned when a debit would overdraw an account or holding
func InsufficientFunds(message string) *AppError {
	if message == "" {
		message = "insufficient funds"
	}
	return New(CodeInsufficientFunds, message, http.StatusUnprocessableEntity)
}

// LimitExceeded is returned when an amount breaks a configured limit
func LimitExceeded(message string) *AppError {
	return New(CodeLimitExceeded, message, http.StatusUnprocessableEntity)
}

// InvalidState is returned when an operation is not allowed in the entity's current status
func InvalidState(message string) *AppError {
	return New(CodeInvalidState, message, http.StatusConflict)
}

// Unavailable creates a service unavailable error
func Unavailable(message string) *AppError {
	return New(CodeUnavailable, message, http.StatusServiceUnavailable)
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error if present
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

func hasCode(err error, code string) bool {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation)
}

// IsUnauthorized checks if the error is an unauthorized error
func IsUnauthorized(err error) bool {
	return hasCode(err, CodeUnauthorized)
}

// IsForbidden checks if the error is a forbidden error
func IsForbidden(err error) bool {
	return hasCode(err, CodeForbidden)
}

// IsConflict checks if the error is a conflict error
func IsConflict(err error) bool {
	return hasCode(err, CodeConflict)
}

// IsRateLimited checks if the error is a rate limited error
func IsRateLimited(err error) bool {
	return hasCode(err, CodeRateLimited)
}

// IsInsufficientFunds checks if the error is an insufficient funds error
func IsInsufficientFunds(err error) bool {
	return hasCode(err, CodeInsufficientFunds)
}

// IsLimitExceeded checks if the error is a limit exceeded error
func IsLimitExceeded(err error) bool {
	return hasCode(err, CodeLimitExceeded)
}

// IsInvalidState checks if the error is an invalid state error
func IsInvalidState(err error) bool {
	return hasCode(err, CodeInvalidState)
}
