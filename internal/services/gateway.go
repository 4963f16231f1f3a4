package services

import (
	"context"

	"clinic-backend/internal/models"
)

// Gateway moves money between payout accounts. Implementations report a
// models.GatewayOutcome even when they also return an error, so the caller can
// record how far execution got.
type Gateway interface {
	// ExecuteTransfers sends one transfer per item. reference identifies the ledger row
	// and is passed to the provider so retries of the same item are not paid twice.
	ExecuteTransfers(ctx context.Context, reference string, items []models.TransferItem) (models.GatewayOutcome, error)
}

// SimulatedGateway is used when no gateway is configured. Nothing moves.
type SimulatedGateway struct{}

func (SimulatedGateway) ExecuteTransfers(ctx context.Context, reference string, items []models.TransferItem) (models.GatewayOutcome, error) {
	if len(items) == 0 {
		return models.GatewayOutcome{Status: models.GatewayStatusNotAttempted}, nil
	}
	results := make([]models.TransferResult, 0, len(items))
	for _, item := range items {
		results = append(results, models.TransferResult{
			Beneficiary: item.Beneficiary,
			Destination: item.Destination,
			AmountCents: item.AmountCents,
			Status:      string(models.GatewayStatusSimulated),
		})
	}
	return models.GatewayOutcome{Status: models.GatewayStatusSimulated, Transfers: results}, nil
}
