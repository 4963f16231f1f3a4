package models

import "time"

type Clinic struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	PayoutAccountID string    `json:"payout_account_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Professional carries the stored commission profile. Nil fields mean the profile does not set them.
type Professional struct {
	ID              string    `json:"id"`
	ClinicID        string    `json:"clinic_id"`
	Name            string    `json:"name"`
	CommissionModel *string   `json:"commission_model,omitempty"`
	CommissionRate  *float64  `json:"commission_rate,omitempty"`
	RentalBaseCents *int64    `json:"rental_base_cents,omitempty"`
	PayoutAccountID string    `json:"payout_account_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ClinicReferral links a referred (receiving) clinic to the clinic that brought it onto the platform
type ClinicReferral struct {
	ReferredClinicID string    `json:"referred_clinic_id"`
	ReferrerClinicID string    `json:"referrer_clinic_id"`
	Active           bool      `json:"active"`
	PayoutAccountID  string    `json:"payout_account_id,omitempty"` // the referrer's account
	CreatedAt        time.Time `json:"created_at"`
}
