package dto

// PurchaseRequest carries the opaque card token produced by the payment form.
type PurchaseRequest struct {
	CardToken string `json:"cardToken" binding:"required" example:"tok_4242424242424242"`
}

// PurchaseResponse confirms a completed purchase and the resulting grant.
type PurchaseResponse struct {
	NoteID   int64   `json:"noteId" example:"15"`
	Amount   float64 `json:"amount" example:"50"`
	Currency string  `json:"currency" example:"INR"`
	ChargeID string  `json:"chargeId" example:"ch_7f3b2a"`
	Granted  bool    `json:"granted" example:"true"`
}
