package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/scholarnote/backend/internal/app/models/dto"
	"github.com/scholarnote/backend/internal/app/services"
	"github.com/scholarnote/backend/internal/middleware"
	"github.com/scholarnote/backend/internal/pkg/apperrors"
)

// PaymentController handles note purchases
type PaymentController struct {
	paymentService services.PaymentService
	logger         zerolog.Logger
}

// NewPaymentController creates a new PaymentController
func NewPaymentController(paymentService services.PaymentService, logger zerolog.Logger) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		logger:         logger,
	}
}

// PurchaseNote charges the caller's card and unlocks the note
// @Summary Purchase a note
// @Description Charges the card token for the note's price and grants the caller download access
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param noteId path int true "Note ID"
// @Param request body dto.PurchaseRequest true "Card token"
// @Success 200 {object} dto.APIResponse{data=dto.PurchaseResponse} "Purchase completed"
// @Failure 400 {object} dto.ErrorResponse "Note is free"
// @Failure 401 {object} dto.ErrorResponse "Not authenticated"
// @Failure 402 {object} dto.ErrorResponse "Charge declined"
// @Failure 404 {object} dto.ErrorResponse "Note not found"
// @Failure 409 {object} dto.ErrorResponse "Already purchased"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /notes/{noteId}/purchase [post]
func (c *PaymentController) PurchaseNote(ctx *gin.Context) {
	actor := middleware.GetActor(ctx)
	if actor == nil {
		middleware.HandleAPIError(ctx, apperrors.ErrNotAuthenticated)
		return
	}

	noteID, err := strconv.ParseInt(ctx.Param("noteId"), 10, 64)
	if err != nil || noteID <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid note ID")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.PurchaseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	purchase, err := c.paymentService.PurchaseNote(ctx.Request.Context(), actor, noteID, req.CardToken)
	if err != nil {
		c.logger.Warn().Err(err).Int64("noteID", noteID).Str("buyer", actor.Email).Msg("Purchase failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: purchase})
}
