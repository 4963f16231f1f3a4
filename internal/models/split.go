package models

import "github.com/google/uuid"

// CommissionModel decides how the clinic and the professional divide what is left after the platform fee
type CommissionModel string

const (
	CommissionModelCommissioned CommissionModel = "commissioned"
	CommissionModelRental       CommissionModel = "rental"
	CommissionModelHybrid       CommissionModel = "hybrid"
)

func (m CommissionModel) Valid() bool {
	switch m {
	case CommissionModelCommissioned, CommissionModelRental, CommissionModelHybrid:
		return true
	}
	return false
}

// SplitRequest is the JSON body accepted by POST /api/payments/split and /preview
type SplitRequest struct {
	ClinicID           string   `json:"clinic_id"`
	AppointmentID      *string  `json:"appointment_id,omitempty"`
	ProfessionalID     string   `json:"professional_id"`
	AmountCents        *int64   `json:"amount_cents"`
	PlatformFeePercent *float64 `json:"platform_fee_percent,omitempty"`
	CommissionModel    *string  `json:"commission_model,omitempty"`
	CommissionRate     *float64 `json:"commission_rate,omitempty"`
	RentalBaseCents    *int64   `json:"rental_base_cents,omitempty"`
	PaymentMethod      string   `json:"payment_method,omitempty"`
	GatewayPaymentID   string   `json:"gateway_payment_id,omitempty"`
	IdempotencyKey     string   `json:"idempotency_key,omitempty"`
}

// PaymentRequest is a validated SplitRequest. Commission fields stay optional
// until the commission resolver fills them in.
type PaymentRequest struct {
	ClinicID           uuid.UUID       `json:"clinic_id"`
	AppointmentID      *uuid.UUID      `json:"appointment_id,omitempty"`
	ProfessionalID     uuid.UUID       `json:"professional_id"`
	AmountCents        int64           `json:"amount_cents"`
	PlatformFeePercent float64         `json:"platform_fee_percent"`
	CommissionModel    CommissionModel `json:"commission_model,omitempty"`
	CommissionRate     *float64        `json:"commission_rate,omitempty"`
	RentalBaseCents    *int64          `json:"rental_base_cents,omitempty"`
	PaymentMethod      string          `json:"payment_method"`
	GatewayPaymentID   string          `json:"gateway_payment_id,omitempty"`
	IdempotencyKey     string          `json:"idempotency_key,omitempty"`
}

// CommissionTerms is what the commission resolver settled on for one payment
type CommissionTerms struct {
	Model           CommissionModel `json:"model"`
	Rate            float64         `json:"rate"`
	RentalBaseCents int64           `json:"rental_base_cents"`
	PayoutAccountID string          `json:"-"`
	Source          string          `json:"source"` // profile, request, default
}

// ReferralContext says whether the receiving clinic was referred and what the referrer earns
type ReferralContext struct {
	HasReferral         bool    `json:"has_referral"`
	ReferralPercent     float64 `json:"referral_percent"`
	ReferralDestination string  `json:"referral_destination,omitempty"`
	ReferrerClinicID    string  `json:"referrer_clinic_id,omitempty"`
}

// SplitResult is the output of the split calculator. All values are in cents.
type SplitResult struct {
	PlatformFeeCents       int64 `json:"platform_fee_cents"`
	PlatformFeeTotalCents  int64 `json:"platform_fee_total_cents"`
	ReferralFeeCents       int64 `json:"referral_fee_cents"`
	ProfessionalShareCents int64 `json:"professional_share_cents"`
	ClinicShareCents       int64 `json:"clinic_share_cents"`
}

// Beneficiary labels used on transfer items and in receipts
const (
	BeneficiaryProfessional = "professional"
	BeneficiaryClinic       = "clinic"
	BeneficiaryReferrer     = "referrer"
	BeneficiaryPlatform     = "platform"
)

// TransferItem is one instruction handed to the gateway
type TransferItem struct {
	Beneficiary string `json:"beneficiary"`
	Destination string `json:"destination"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description"`
}

// SplitResponse is returned by POST /api/payments/split
type SplitResponse struct {
	OK             bool            `json:"ok"`
	Split          SplitResult     `json:"split"`
	Gateway        GatewaySummary  `json:"gateway"`
	TransactionID  int64           `json:"transaction_id,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	Replayed       bool            `json:"replayed,omitempty"`
	Commission     CommissionTerms `json:"commission"`
	Referral       ReferralContext `json:"referral"`
}

// GatewaySummary is the gateway part of the split response
type GatewaySummary struct {
	Status    GatewayStatus    `json:"status"`
	Transfers []TransferResult `json:"transfers,omitempty"`
}

// ErrorResponse is the failure body for every payment endpoint
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
