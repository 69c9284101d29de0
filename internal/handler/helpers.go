package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/middleware"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
)

// Pagination represents pagination parameters for list operations.
type Pagination struct {
	Limit  int
	Offset int
}

// DefaultPagination provides default pagination values.
var DefaultPagination = Pagination{Limit: 50, Offset: 0}

// maxPageSize caps limit on every offset paged list
const maxPageSize = 100

// ListResponse is the envelope of offset paged lists
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func newListResponse[T any](items []T, total int, p Pagination) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: total, Limit: p.Limit, Offset: p.Offset}
}

// RequireUserID extracts the user ID from the request context.
func RequireUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return uuid.Nil, apperrors.Unauthorized("User ID not found")
	}
	return userID, nil
}

// ParsePagination extracts limit and offset query parameters with validation.
// maxLimit specifies the maximum allowed limit (0 for no maximum).
func ParsePagination(c *fiber.Ctx, maxLimit int) Pagination {
	p := Pagination{
		Limit:  parseQueryInt(c, "limit", DefaultPagination.Limit),
		Offset: parseQueryInt(c, "offset", DefaultPagination.Offset),
	}

	if p.Limit <= 0 {
		p.Limit = DefaultPagination.Limit
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	return p
}

// parseQueryInt parses an integer query parameter with a default value.
func parseQueryInt(c *fiber.Ctx, key string, defaultValue int) int {
	val := c.Query(key)
	if val == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// parseQueryUUID parses a UUID query parameter.
// Returns nil if the parameter is empty or invalid.
func parseQueryUUID(c *fiber.Ctx, key string) *uuid.UUID {
	val := c.Query(key)
	if val == "" {
		return nil
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return nil
	}
	return &id
}

// parseQueryEnum returns a pointer to the typed query value, nil when absent
func parseQueryEnum[T ~string](c *fiber.Ctx, key string) *T {
	val := c.Query(key)
	if val == "" {
		return nil
	}
	v := T(val)
	return &v
}

// parseIDParam parses a UUID route parameter
func parseIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperrors.BadRequest("Invalid " + name)
	}
	return id, nil
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// respondError writes err as a JSON error response. Application errors keep
// their status and message; anything else is logged and reported as a 500.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	status := apperrors.GetStatusCode(err)
	resp := ErrorResponse{Error: utils.StatusMessage(status)}

	if appErr := apperrors.GetAppError(err); appErr != nil {
		resp.Code = appErr.Code
		resp.Message = appErr.Message
		resp.Details = appErr.Details
	} else {
		resp.Code = apperrors.CodeInternal
		resp.Message = "An unexpected error occurred"
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed",
			zap.Error(err),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
	}

	return c.Status(status).JSON(resp)
}
