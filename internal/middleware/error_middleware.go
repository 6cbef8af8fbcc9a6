package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/scholarnote/backend/internal/app/models/dto"
	"github.com/scholarnote/backend/internal/pkg/apperrors"
)

// HandleAPIError maps application errors to HTTP responses. Controllers call
// this for every service error so status codes stay consistent across the
// API.
func HandleAPIError(c *gin.Context, err error) {
	var customErr *apperrors.CustomError
	message := ""
	if errors.As(err, &customErr) {
		message = customErr.Message
	}

	respond := func(status int, code dto.ErrorCode, fallback string) {
		if message == "" {
			message = fallback
		}
		c.JSON(status, dto.APIResponse{
			Error: dto.NewErrorDetail(code, message),
		})
	}

	switch {
	case errors.Is(err, apperrors.ErrNoteNotFound):
		respond(404, dto.ErrorCodeResourceNotFound, "Note not found")
	case errors.Is(err, apperrors.ErrResourceNotFound), errors.Is(err, apperrors.ErrUserNotFound):
		respond(404, dto.ErrorCodeResourceNotFound, "Resource not found")
	case errors.Is(err, apperrors.ErrPaymentRequired):
		respond(402, dto.ErrorCodePaymentRequired, "Purchase required to view this note")
	case errors.Is(err, apperrors.ErrChargeFailed):
		respond(402, dto.ErrorCodePaymentError, "Payment charge failed")
	case errors.Is(err, apperrors.ErrPermissionDenied):
		respond(403, dto.ErrorCodeForbidden, "Permission denied")
	case errors.Is(err, apperrors.ErrNotAuthenticated):
		respond(401, dto.ErrorCodeUnauthorized, "Authentication required")
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		respond(401, dto.ErrorCodeInvalidCredentials, "Invalid credentials")
	case errors.Is(err, apperrors.ErrAccountDisabled):
		respond(401, dto.ErrorCodeUnauthorized, "Account is disabled")
	case errors.Is(err, apperrors.ErrTokenExpired):
		respond(401, dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, apperrors.ErrTokenRevoked):
		respond(401, dto.ErrorCodeInvalidToken, "Invalid token")
	case errors.Is(err, apperrors.ErrTokenNotFound):
		respond(401, dto.ErrorCodeTokenNotFound, "Token not found")
	case errors.Is(err, apperrors.ErrRatingOutOfRange):
		respond(400, dto.ErrorCodeValidationFailed, "Rating must be between 1 and 5")
	case errors.Is(err, apperrors.ErrEmptyComment):
		respond(400, dto.ErrorCodeValidationFailed, "Comment cannot be empty")
	case errors.Is(err, apperrors.ErrNoteFileMissing):
		respond(404, dto.ErrorCodeResourceNotFound, "Note has no file attached")
	case errors.Is(err, apperrors.ErrNoteNotPaid):
		respond(400, dto.ErrorCodeInvalidRequest, "Note does not require purchase")
	case errors.Is(err, apperrors.ErrAlreadyPurchased):
		respond(409, dto.ErrorCodeResourceAlreadyExists, "Note access already granted")
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		respond(400, dto.ErrorCodeValidationFailed, "Validation failed")
	case errors.Is(err, apperrors.ErrEmailAlreadyExists):
		respond(409, dto.ErrorCodeResourceAlreadyExists, "Email already exists")
	default:
		respond(500, dto.ErrorCodeInternalServer, "Internal server error")
	}
}
