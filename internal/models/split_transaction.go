package models

import "time"

// GatewayStatus records how far transfer execution got for a ledger row
type GatewayStatus string

const (
	GatewayStatusNotAttempted GatewayStatus = "not_attempted" // nothing to transfer
	GatewayStatusPending      GatewayStatus = "pending"       // gateway unreachable or errored, retry later
	GatewayStatusSimulated    GatewayStatus = "simulated"     // no gateway configured, money has not moved
	GatewayStatusCompleted    GatewayStatus = "completed"     // gateway accepted every transfer
	GatewayStatusFailed       GatewayStatus = "failed"        // gateway rejected the transfers
)

func (s GatewayStatus) Valid() bool {
	switch s {
	case GatewayStatusNotAttempted, GatewayStatusPending, GatewayStatusSimulated,
		GatewayStatusCompleted, GatewayStatusFailed:
		return true
	}
	return false
}

// TransferResult is the gateway's answer for one transfer item
type TransferResult struct {
	Beneficiary string `json:"beneficiary"`
	Destination string `json:"destination"`
	AmountCents int64  `json:"amount_cents"`
	TransferID  string `json:"transfer_id,omitempty"`
	Status      string `json:"status"`
}

// GatewayOutcome is what the gateway adapter reports back to the pipeline
type GatewayOutcome struct {
	Status            GatewayStatus    `json:"status"`
	ProviderPaymentID string           `json:"provider_payment_id,omitempty"`
	Transfers         []TransferResult `json:"transfers,omitempty"`
	Error             string           `json:"error,omitempty"`
}

// SplitPayload is the full computed split kept on the ledger row for audit
type SplitPayload struct {
	Split      SplitResult      `json:"split"`
	Commission CommissionTerms  `json:"commission"`
	Referral   ReferralContext  `json:"referral"`
	Transfers  []TransferResult `json:"transfers,omitempty"`
}

// SplitTransaction is one immutable ledger row
type SplitTransaction struct {
	ID             int64  `json:"id"`
	IdempotencyKey string `json:"idempotency_key"`
	RequestHash    string `json:"-"`

	ClinicID       string  `json:"clinic_id"`
	AppointmentID  *string `json:"appointment_id,omitempty"`
	ProfessionalID string  `json:"professional_id"`
	PaymentMethod  string  `json:"payment_method"`

	CommissionModel    CommissionModel `json:"commission_model"`
	CommissionRate     float64         `json:"commission_rate"`
	PlatformFeePercent float64         `json:"platform_fee_percent"`

	// Amounts (in cents)
	AmountCents            int64 `json:"amount_cents"`
	PlatformFeeCents       int64 `json:"platform_fee_cents"`
	PlatformFeeTotalCents  int64 `json:"platform_fee_total_cents"`
	ReferralFeeCents       int64 `json:"referral_fee_cents"`
	ProfessionalShareCents int64 `json:"professional_share_cents"`
	ClinicShareCents       int64 `json:"clinic_share_cents"`

	// Execution
	Status           GatewayStatus `json:"status"`
	GatewayPaymentID *string       `json:"gateway_payment_id,omitempty"`
	GatewayError     string        `json:"gateway_error,omitempty"`

	SplitPayload   SplitPayload   `json:"split_payload"`
	RequestPayload PaymentRequest `json:"request_payload"`

	SettledAt *time.Time `json:"settled_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Split returns the five calculator fields stored on the row
func (t *SplitTransaction) Split() SplitResult {
	return SplitResult{
		PlatformFeeCents:       t.PlatformFeeCents,
		PlatformFeeTotalCents:  t.PlatformFeeTotalCents,
		ReferralFeeCents:       t.ReferralFeeCents,
		ProfessionalShareCents: t.ProfessionalShareCents,
		ClinicShareCents:       t.ClinicShareCents,
	}
}

// SplitTransactionFilter is used for listing ledger rows
type SplitTransactionFilter struct {
	ClinicID       string     `json:"clinic_id,omitempty"`
	ProfessionalID string     `json:"professional_id,omitempty"`
	Status         string     `json:"status,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	Limit          int        `json:"limit"`
	Offset         int        `json:"offset"`
}

// SplitSummary is for clinic financial reports
type SplitSummary struct {
	TotalTransactions      int   `json:"total_transactions"`
	CompletedTransactions  int   `json:"completed_transactions"`
	PendingTransactions    int   `json:"pending_transactions"`
	SimulatedTransactions  int   `json:"simulated_transactions"`
	FailedTransactions     int   `json:"failed_transactions"`
	SettledTransactions    int   `json:"settled_transactions"`
	TotalAmountCents       int64 `json:"total_amount_cents"`
	PlatformFeeCents       int64 `json:"platform_fee_cents"`
	ReferralFeeCents       int64 `json:"referral_fee_cents"`
	ProfessionalShareCents int64 `json:"professional_share_cents"`
	ClinicShareCents       int64 `json:"clinic_share_cents"`
}

// ReconcileResult reports one reconciliation pass over pending ledger rows
type ReconcileResult struct {
	Checked   int `json:"checked"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}
