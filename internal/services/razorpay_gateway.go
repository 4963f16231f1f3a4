package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	"clinic-backend/internal/config"
	"clinic-backend/internal/models"

	razorpay "github.com/razorpay/razorpay-go"
	rzperrors "github.com/razorpay/razorpay-go/errors"
)

// GatewaySettings is the runtime switchboard for the gateway, backed by system_settings
type GatewaySettings interface {
	OnlinePaymentsEnabled(ctx context.Context) bool
	StringValue(ctx context.Context, key string) string
}

// transferCreator is the part of the Razorpay client used here
type transferCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayGateway executes split transfers as Razorpay Route transfers to linked accounts
type RazorpayGateway struct {
	settings GatewaySettings
	currency string
	// Fallback credentials from environment (used if DB credentials not set)
	envKeyID         string
	envKeySecret     string
	envWebhookSecret string

	// newTransfers is swapped in tests
	newTransfers func(keyID, keySecret string) transferCreator
}

func NewRazorpayGateway(cfg *config.Config, settings GatewaySettings) *RazorpayGateway {
	return &RazorpayGateway{
		settings:         settings,
		currency:         cfg.Payments.Currency,
		envKeyID:         cfg.Razorpay.KeyID,
		envKeySecret:     cfg.Razorpay.KeySecret,
		envWebhookSecret: cfg.Razorpay.WebhookSecret,
		newTransfers: func(keyID, keySecret string) transferCreator {
			return razorpay.NewClient(keyID, keySecret).Transfer
		},
	}
}

// getCredentials returns the Razorpay credentials (from DB first, then env fallback)
func (g *RazorpayGateway) getCredentials(ctx context.Context) (keyID, keySecret, webhookSecret string) {
	if g.settings != nil {
		keyID = g.settings.StringValue(ctx, models.SettingRazorpayKeyID)
		keySecret = g.settings.StringValue(ctx, models.SettingRazorpayKeySecret)
		webhookSecret = g.settings.StringValue(ctx, models.SettingRazorpayWebhook)
	}

	if keyID == "" {
		keyID = g.envKeyID
	}
	if keySecret == "" {
		keySecret = g.envKeySecret
	}
	if webhookSecret == "" {
		webhookSecret = g.envWebhookSecret
	}
	return keyID, keySecret, webhookSecret
}

// Configured reports whether transfers would actually be sent
func (g *RazorpayGateway) Configured(ctx context.Context) bool {
	if g.settings == nil || !g.settings.OnlinePaymentsEnabled(ctx) {
		return false
	}
	keyID, keySecret, _ := g.getCredentials(ctx)
	return keyID != "" && keySecret != ""
}

// ExecuteTransfers creates one transfer per item. With online payments disabled or
// no credentials it simulates. The Razorpay client has no context support, so the
// call runs in its own goroutine and a ctx timeout leaves the row pending; the
// per-item idempotency header keeps a later retry from paying twice.
func (g *RazorpayGateway) ExecuteTransfers(ctx context.Context, reference string, items []models.TransferItem) (models.GatewayOutcome, error) {
	if len(items) == 0 {
		return models.GatewayOutcome{Status: models.GatewayStatusNotAttempted}, nil
	}
	if !g.Configured(ctx) {
		return SimulatedGateway{}.ExecuteTransfers(ctx, reference, items)
	}

	keyID, keySecret, _ := g.getCredentials(ctx)
	transfers := g.newTransfers(keyID, keySecret)

	type result struct {
		outcome models.GatewayOutcome
		err     error
	}
	done := make(chan result, 1)
	go func() {
		outcome, err := g.createTransfers(transfers, reference, items)
		done <- result{outcome, err}
	}()

	select {
	case r := <-done:
		return r.outcome, r.err
	case <-ctx.Done():
		err := &models.GatewayError{Op: "transfer", Err: ctx.Err()}
		return models.GatewayOutcome{Status: models.GatewayStatusPending, Error: err.Error()}, err
	}
}

func (g *RazorpayGateway) createTransfers(transfers transferCreator, reference string, items []models.TransferItem) (models.GatewayOutcome, error) {
	outcome := models.GatewayOutcome{Status: models.GatewayStatusCompleted}
	var errs []error

	for _, item := range items {
		res := models.TransferResult{
			Beneficiary: item.Beneficiary,
			Destination: item.Destination,
			AmountCents: item.AmountCents,
		}

		data := map[string]interface{}{
			"account":  item.Destination,
			"amount":   item.AmountCents,
			"currency": g.currency,
			"notes": map[string]interface{}{
				"split_key":   reference,
				"beneficiary": item.Beneficiary,
				"description": item.Description,
			},
		}
		headers := map[string]string{
			"X-Transfer-Idempotency": reference + ":" + item.Beneficiary,
		}

		resp, err := transfers.Create(data, headers)
		if err != nil {
			log.Printf("[Razorpay] Transfer to %s (%s) for %s failed: %v", item.Destination, item.Beneficiary, reference, err)
			// 4xx is a final rejection; 5xx and transport errors are retried by the reconciler
			var rejected *rzperrors.BadRequestError
			if errors.As(err, &rejected) {
				res.Status = string(models.GatewayStatusFailed)
				if outcome.Status != models.GatewayStatusPending {
					outcome.Status = models.GatewayStatusFailed
				}
			} else {
				res.Status = string(models.GatewayStatusPending)
				outcome.Status = models.GatewayStatusPending
			}
			errs = append(errs, fmt.Errorf("%s: %w", item.Beneficiary, err))
			outcome.Transfers = append(outcome.Transfers, res)
			continue
		}

		res.TransferID, _ = resp["id"].(string)
		status, _ := resp["status"].(string)
		switch status {
		case "processed":
			res.Status = string(models.GatewayStatusCompleted)
		case "failed", "reversed", "partially_reversed":
			res.Status = string(models.GatewayStatusFailed)
			if outcome.Status != models.GatewayStatusPending {
				outcome.Status = models.GatewayStatusFailed
			}
			errs = append(errs, fmt.Errorf("%s: transfer %s %s", item.Beneficiary, res.TransferID, status))
		default:
			// created/pending: money has not moved until transfer.processed arrives
			res.Status = string(models.GatewayStatusPending)
			outcome.Status = models.GatewayStatusPending
		}
		outcome.Transfers = append(outcome.Transfers, res)
	}

	if len(errs) > 0 {
		err := &models.GatewayError{Op: "transfer", Err: errors.Join(errs...)}
		outcome.Error = err.Error()
		return outcome, err
	}
	log.Printf("[Razorpay] %d transfer(s) created for %s", len(items), reference)
	return outcome, nil
}

// VerifyWebhookSignature verifies the webhook signature
func (g *RazorpayGateway) VerifyWebhookSignature(ctx context.Context, body []byte, signature string) bool {
	_, _, webhookSecret := g.getCredentials(ctx)
	if webhookSecret == "" {
		// no secret configured: nothing can be verified
		return false
	}

	h := hmac.New(sha256.New, []byte(webhookSecret))
	h.Write(body)
	expectedSignature := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expectedSignature), []byte(signature))
}
