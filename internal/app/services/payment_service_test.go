package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarnote/backend/internal/app/models"
	"github.com/scholarnote/backend/internal/pkg/apperrors"
	"github.com/scholarnote/backend/internal/pkg/payments"
)

// fakePurchaseStore layers purchase recording on top of fakeNoteStore.
type fakePurchaseStore struct {
	*fakeNoteStore
	purchases []*models.Purchase
}

func (s *fakePurchaseStore) RecordPurchase(_ context.Context, purchase *models.Purchase, email string) (int64, error) {
	note, ok := s.notes[purchase.NoteID]
	if !ok {
		return 0, apperrors.ErrNoteNotFound
	}
	for _, p := range s.purchases {
		if p.NoteID == purchase.NoteID && p.UserID == purchase.UserID {
			return 0, apperrors.ErrAlreadyPurchased
		}
	}
	purchase.ID = int64(len(s.purchases) + 1)
	s.purchases = append(s.purchases, purchase)
	note.GrantDownloader(email)
	return purchase.ID, nil
}

func newTestPaymentService() (PaymentService, *fakePurchaseStore) {
	store := &fakePurchaseStore{fakeNoteStore: newFakeNoteStore()}
	svc := NewPaymentService(store, payments.NewSimulatedGateway(), "INR")
	return svc, store
}

func TestPurchaseNote(t *testing.T) {
	svc, store := newTestPaymentService()
	note := seedNote(store.fakeNoteStore, true)
	buyer := &models.Actor{ID: 5, Email: "buyer@example.com"}

	resp, err := svc.PurchaseNote(context.Background(), buyer, note.ID, "tok_4242")
	require.NoError(t, err)

	assert.Equal(t, note.ID, resp.NoteID)
	assert.InDelta(t, 50.0, resp.Amount, 1e-9)
	assert.Equal(t, "INR", resp.Currency)
	assert.NotEmpty(t, resp.ChargeID)
	assert.True(t, resp.Granted)

	require.Len(t, store.purchases, 1)
	assert.True(t, note.HasDownloader(buyer.Email))
}

func TestPurchaseNoteFreeNote(t *testing.T) {
	svc, store := newTestPaymentService()
	note := seedNote(store.fakeNoteStore, false)

	_, err := svc.PurchaseNote(context.Background(), &models.Actor{ID: 5, Email: "b@x.com"}, note.ID, "tok_4242")
	assert.ErrorIs(t, err, apperrors.ErrNoteNotPaid)
}

func TestPurchaseNoteAlreadyGranted(t *testing.T) {
	svc, store := newTestPaymentService()
	note := seedNote(store.fakeNoteStore, true)
	buyer := &models.Actor{ID: 5, Email: "buyer@example.com"}
	note.GrantDownloader(buyer.Email)

	_, err := svc.PurchaseNote(context.Background(), buyer, note.ID, "tok_4242")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyPurchased)
	assert.Empty(t, store.purchases)
}

func TestPurchaseNoteChargeDeclined(t *testing.T) {
	svc, store := newTestPaymentService()
	note := seedNote(store.fakeNoteStore, true)
	buyer := &models.Actor{ID: 5, Email: "buyer@example.com"}

	_, err := svc.PurchaseNote(context.Background(), buyer, note.ID, "tok_err_declined")
	assert.ErrorIs(t, err, apperrors.ErrChargeFailed)

	// No money moved, so nothing may be granted
	assert.Empty(t, store.purchases)
	assert.False(t, note.HasDownloader(buyer.Email))
}

func TestPurchaseNoteRequiresAuth(t *testing.T) {
	svc, store := newTestPaymentService()
	note := seedNote(store.fakeNoteStore, true)

	_, err := svc.PurchaseNote(context.Background(), nil, note.ID, "tok_4242")
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

func TestPurchaseNoteNotFound(t *testing.T) {
	svc, _ := newTestPaymentService()

	_, err := svc.PurchaseNote(context.Background(), &models.Actor{ID: 5, Email: "b@x.com"}, 999, "tok_4242")
	assert.ErrorIs(t, err, apperrors.ErrNoteNotFound)
}
