package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/scholarnote/backend/internal/pkg/logger"
)

// Charge is the gateway's record of a completed card charge.
type Charge struct {
	ID       string
	Amount   float64
	Currency string
}

// Gateway charges a card token for a fixed amount. Implementations must only
// return a Charge once the money has actually moved; access grants key off a
// successful charge.
type Gateway interface {
	ChargeCard(ctx context.Context, token string, amount float64, currency string) (*Charge, error)
}

// SimulatedGateway approves every syntactically valid card token without
// contacting a processor. Tokens beginning with "tok_err" are declined, which
// gives tests and demos a deterministic failure path.
type SimulatedGateway struct{}

// NewSimulatedGateway creates a gateway that approves charges locally.
func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{}
}

// ChargeCard validates the token, then fabricates a charge ID.
func (g *SimulatedGateway) ChargeCard(ctx context.Context, token string, amount float64, currency string) (*Charge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !strings.HasPrefix(token, "tok_") {
		return nil, fmt.Errorf("malformed card token")
	}
	if strings.HasPrefix(token, "tok_err") {
		return nil, fmt.Errorf("card declined")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("charge amount must be positive, got %v", amount)
	}

	charge := &Charge{
		ID:       "ch_" + uuid.New().String(),
		Amount:   amount,
		Currency: currency,
	}

	logger.Info().
		Str("chargeId", charge.ID).
		Float64("amount", amount).
		Str("currency", currency).
		Msg("Simulated charge approved")

	return charge, nil
}
