package dto

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// HandleValidationError converts a binding error into an ErrorDetail,
// unpacking field-level messages when the error came from the validator.
func HandleValidationError(err error) *ErrorDetail {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return NewErrorDetail(ErrorCodeValidationFailed, "Invalid request format").
			WithDetails(err.Error())
	}

	fields := NewValidationErrors()
	for _, fe := range validationErrs {
		fields.AddError(fe.Field(), formatFieldError(fe))
	}

	return NewErrorDetail(ErrorCodeValidationFailed, "Validation failed").
		WithDetails(fields.Errors)
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gte":
		return e.Field() + " must be at least " + e.Param()
	case "email":
		return e.Field() + " must be a valid email address"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
