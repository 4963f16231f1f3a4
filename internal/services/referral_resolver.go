package services

import (
	"context"
	"errors"
	"log"

	"clinic-backend/internal/config"
	"clinic-backend/internal/models"
)

// ReferralStore reads the referral registry, keyed by the clinic receiving the payment
type ReferralStore interface {
	GetReferral(ctx context.Context, referredClinicID string) (*models.ClinicReferral, error)
}

// ReferralPercentSource supplies the global referral fee fraction
type ReferralPercentSource interface {
	ReferralFeePercent(ctx context.Context) (float64, error)
}

type ReferralResolver struct {
	store          ReferralStore
	percent        ReferralPercentSource
	defaultPercent float64
}

func NewReferralResolver(store ReferralStore, percent ReferralPercentSource, cfg config.PaymentsConfig) *ReferralResolver {
	return &ReferralResolver{store: store, percent: percent, defaultPercent: cfg.ReferralFeePercent}
}

// Resolve never fails: anything short of an active referral with a payout
// account means no referral.
func (r *ReferralResolver) Resolve(ctx context.Context, receivingClinicID string) models.ReferralContext {
	none := models.ReferralContext{ReferralPercent: r.defaultPercent}

	ref, err := r.store.GetReferral(ctx, receivingClinicID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			log.Printf("[Referral] Registry lookup failed for clinic %s, continuing without referral: %v", receivingClinicID, err)
		}
		return none
	}
	if !ref.Active {
		return none
	}
	if ref.PayoutAccountID == "" {
		log.Printf("[Referral] Referrer %s of clinic %s has no payout account, skipping referral fee",
			ref.ReferrerClinicID, receivingClinicID)
		return none
	}

	return models.ReferralContext{
		HasReferral:         true,
		ReferralPercent:     r.referralPercent(ctx),
		ReferralDestination: ref.PayoutAccountID,
		ReferrerClinicID:    ref.ReferrerClinicID,
	}
}

func (r *ReferralResolver) referralPercent(ctx context.Context) float64 {
	if r.percent == nil {
		return r.defaultPercent
	}
	p, err := r.percent.ReferralFeePercent(ctx)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			log.Printf("[Referral] Using default referral percent %.4f: %v", r.defaultPercent, err)
		}
		return r.defaultPercent
	}
	return p
}
