package dto

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
	"github.com/ledgerline/ledgerline/internal/validator"
)

// ParseAndValidate parses the request body into the given struct and validates it.
// Field failures are returned as a validation AppError with one detail per field.
func ParseAndValidate(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return apperrors.BadRequest("Invalid request body: " + err.Error())
	}
	return Validate(v)
}

// Validate validates an already populated request
func Validate(v any) error {
	if err := validator.Validate(v); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			appErr := apperrors.Validation("Request validation failed")
			for _, fe := range validationErrors {
				appErr.WithDetail(fe.Field, fe.Message)
			}
			return appErr
		}
		return apperrors.BadRequest(err.Error())
	}
	return nil
}
