package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"strings"

	"clinic-backend/internal/models"

	"github.com/google/uuid"
)

const (
	maxPaymentMethodLen  = 50
	maxGatewayIDLen      = 100
	maxIdempotencyKeyLen = 200
)

// NormalizeSplitRequest validates a split request body and turns it into a PaymentRequest.
// headerKey is the Idempotency-Key header, which must agree with the body key when both are set.
// Nothing is looked up here; every error is a *models.ValidationError.
func NormalizeSplitRequest(req *models.SplitRequest, headerKey string, defaultPlatformFee float64) (*models.PaymentRequest, error) {
	if req == nil {
		return nil, models.NewValidationError("", "request body is required")
	}

	clinicID, err := parseUUID("clinic_id", req.ClinicID)
	if err != nil {
		return nil, err
	}
	professionalID, err := parseUUID("professional_id", req.ProfessionalID)
	if err != nil {
		return nil, err
	}

	p := &models.PaymentRequest{
		ClinicID:           clinicID,
		ProfessionalID:     professionalID,
		PlatformFeePercent: defaultPlatformFee,
	}

	if req.AppointmentID != nil && strings.TrimSpace(*req.AppointmentID) != "" {
		appointmentID, err := parseUUID("appointment_id", *req.AppointmentID)
		if err != nil {
			return nil, err
		}
		p.AppointmentID = &appointmentID
	}

	if req.AmountCents == nil {
		return nil, models.NewValidationError("amount_cents", "is required")
	}
	if *req.AmountCents < 0 {
		return nil, models.NewValidationError("amount_cents", "must not be negative, got %d", *req.AmountCents)
	}
	p.AmountCents = *req.AmountCents

	if req.PlatformFeePercent != nil {
		if !validRate(*req.PlatformFeePercent) {
			return nil, models.NewValidationError("platform_fee_percent", "must be between 0 and 1")
		}
		p.PlatformFeePercent = *req.PlatformFeePercent
	}

	if req.CommissionModel != nil && *req.CommissionModel != "" {
		m := models.CommissionModel(strings.ToLower(strings.TrimSpace(*req.CommissionModel)))
		if !m.Valid() {
			return nil, models.NewValidationError("commission_model", "must be one of commissioned, rental, hybrid")
		}
		p.CommissionModel = m
	}

	if req.CommissionRate != nil {
		if !validRate(*req.CommissionRate) {
			return nil, models.NewValidationError("commission_rate", "must be between 0 and 1")
		}
		rate := *req.CommissionRate
		p.CommissionRate = &rate
	}

	if req.RentalBaseCents != nil {
		if *req.RentalBaseCents < 0 {
			return nil, models.NewValidationError("rental_base_cents", "must not be negative")
		}
		base := *req.RentalBaseCents
		p.RentalBaseCents = &base
	}

	p.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if len(p.PaymentMethod) > maxPaymentMethodLen {
		return nil, models.NewValidationError("payment_method", "must be at most %d characters", maxPaymentMethodLen)
	}

	p.GatewayPaymentID = strings.TrimSpace(req.GatewayPaymentID)
	if len(p.GatewayPaymentID) > maxGatewayIDLen {
		return nil, models.NewValidationError("gateway_payment_id", "must be at most %d characters", maxGatewayIDLen)
	}

	bodyKey := strings.TrimSpace(req.IdempotencyKey)
	headerKey = strings.TrimSpace(headerKey)
	if bodyKey != "" && headerKey != "" && bodyKey != headerKey {
		return nil, models.NewValidationError("idempotency_key", "body and Idempotency-Key header disagree")
	}
	p.IdempotencyKey = bodyKey
	if p.IdempotencyKey == "" {
		p.IdempotencyKey = headerKey
	}
	if len(p.IdempotencyKey) > maxIdempotencyKeyLen {
		return nil, models.NewValidationError("idempotency_key", "must be at most %d characters", maxIdempotencyKeyLen)
	}

	return p, nil
}

// UniquenessKey names the originating payment event. An appointment and payment method
// identify it best; a gateway payment id or a caller-supplied key are used otherwise.
func UniquenessKey(p *models.PaymentRequest) (string, error) {
	switch {
	case p.AppointmentID != nil:
		return "appt:" + p.AppointmentID.String() + ":" + p.PaymentMethod, nil
	case p.GatewayPaymentID != "":
		return "gw:" + p.GatewayPaymentID, nil
	case p.IdempotencyKey != "":
		return "key:" + p.IdempotencyKey, nil
	}
	return "", models.NewValidationError("idempotency_key",
		"one of appointment_id, gateway_payment_id or an Idempotency-Key header is required")
}

// RequestHash fingerprints the fields that decide the split. Replays with the same
// uniqueness key must carry the same hash.
func RequestHash(p *models.PaymentRequest) string {
	fingerprint := struct {
		ClinicID           uuid.UUID              `json:"c"`
		AppointmentID      *uuid.UUID             `json:"a"`
		ProfessionalID     uuid.UUID              `json:"p"`
		AmountCents        int64                  `json:"amt"`
		PlatformFeePercent float64                `json:"fee"`
		CommissionModel    models.CommissionModel `json:"m"`
		CommissionRate     *float64               `json:"r"`
		RentalBaseCents    *int64                 `json:"rb"`
		PaymentMethod      string                 `json:"pm"`
	}{
		p.ClinicID, p.AppointmentID, p.ProfessionalID, p.AmountCents, p.PlatformFeePercent,
		p.CommissionModel, p.CommissionRate, p.RentalBaseCents, p.PaymentMethod,
	}
	data, _ := json.Marshal(fingerprint)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func parseUUID(field, value string) (uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil, models.NewValidationError(field, "is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, models.NewValidationError(field, "must be a UUID")
	}
	return id, nil
}

func validRate(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
