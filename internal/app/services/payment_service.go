package services

import (
	"context"

	"github.com/scholarnote/backend/internal/app/models"
	"github.com/scholarnote/backend/internal/app/models/dto"
	"github.com/scholarnote/backend/internal/pkg/apperrors"
	"github.com/scholarnote/backend/internal/pkg/logger"
	"github.com/scholarnote/backend/internal/pkg/payments"
)

// PurchaseStore is the persistence surface the payment service needs.
type PurchaseStore interface {
	GetNoteByID(ctx context.Context, id int64) (*models.Note, error)
	HasAccess(ctx context.Context, noteID int64, email string) (bool, error)
	RecordPurchase(ctx context.Context, purchase *models.Purchase, email string) (int64, error)
}

// PaymentService defines the purchase operation exposed to controllers.
type PaymentService interface {
	PurchaseNote(ctx context.Context, actor *models.Actor, noteID int64, cardToken string) (*dto.PurchaseResponse, error)
}

// paymentServiceImpl implements PaymentService
type paymentServiceImpl struct {
	store    PurchaseStore
	gateway  payments.Gateway
	currency string
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(store PurchaseStore, gateway payments.Gateway, currency string) PaymentService {
	return &paymentServiceImpl{
		store:    store,
		gateway:  gateway,
		currency: currency,
	}
}

// PurchaseNote charges the card and grants the buyer access. The charge runs
// first; the purchase record and access grant land together in one
// transaction only after the charge succeeds.
func (s *paymentServiceImpl) PurchaseNote(ctx context.Context, actor *models.Actor, noteID int64, cardToken string) (*dto.PurchaseResponse, error) {
	if actor == nil {
		return nil, apperrors.ErrNotAuthenticated
	}

	note, err := s.store.GetNoteByID(ctx, noteID)
	if err != nil {
		return nil, err
	}

	if !note.IsPaid {
		return nil, apperrors.ErrNoteNotPaid
	}

	granted, err := s.store.HasAccess(ctx, noteID, actor.Email)
	if err != nil {
		return nil, err
	}
	if granted {
		return nil, apperrors.ErrAlreadyPurchased
	}

	charge, err := s.gateway.ChargeCard(ctx, cardToken, note.Amount, s.currency)
	if err != nil {
		logger.Warn().Err(err).Int64("noteID", noteID).Str("buyer", actor.Email).Msg("Charge declined")
		return nil, apperrors.NewCustomError(apperrors.ErrChargeFailed, err.Error())
	}

	_, err = s.store.RecordPurchase(ctx, &models.Purchase{
		NoteID:   noteID,
		UserID:   actor.ID,
		Amount:   charge.Amount,
		ChargeID: charge.ID,
	}, actor.Email)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int64("noteID", noteID).
		Str("buyer", actor.Email).
		Str("chargeID", charge.ID).
		Float64("amount", charge.Amount).
		Msg("Note purchased")

	return &dto.PurchaseResponse{
		NoteID:   noteID,
		Amount:   charge.Amount,
		Currency: charge.Currency,
		ChargeID: charge.ID,
		Granted:  true,
	}, nil
}
