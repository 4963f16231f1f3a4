package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"clinic-backend/pkg/utils"
)

const maxWebhookBody = 1 << 20

// WebhookVerifier is satisfied by *services.RazorpayGateway
type WebhookVerifier interface {
	VerifyWebhookSignature(ctx context.Context, body []byte, signature string) bool
}

// WebhookProcessor is satisfied by *services.SplitService
type WebhookProcessor interface {
	ProcessWebhook(ctx context.Context, event string, payload map[string]interface{}) error
}

type RazorpayHandler struct {
	Verifier  WebhookVerifier
	Processor WebhookProcessor
}

func NewRazorpayHandler(verifier WebhookVerifier, processor WebhookProcessor) *RazorpayHandler {
	return &RazorpayHandler{Verifier: verifier, Processor: processor}
}

// HandleWebhook processes Razorpay webhook events
// POST /api/payments/webhook
func (h *RazorpayHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	// Read body
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		log.Printf("[Razorpay] Failed to read webhook body: %v", err)
		utils.Error(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	// Verify signature
	signature := r.Header.Get("X-Razorpay-Signature")
	if !h.Verifier.VerifyWebhookSignature(r.Context(), body, signature) {
		log.Printf("[Razorpay] Invalid webhook signature")
		utils.Error(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	// Parse payload
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[Razorpay] Failed to parse webhook: %v", err)
		utils.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	event, _ := payload["event"].(string)
	payloadData, _ := payload["payload"].(map[string]interface{})

	log.Printf("[Razorpay] Received webhook: %s", event)

	// A failure here is retried by Razorpay, so only infrastructure errors return 500
	if err := h.Processor.ProcessWebhook(r.Context(), event, payloadData); err != nil {
		log.Printf("[Razorpay] Webhook processing error: %v", err)
		utils.Error(w, http.StatusInternalServerError, "webhook not applied")
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
