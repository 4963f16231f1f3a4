package services

import (
	"context"
	"errors"
	"log"

	"clinic-backend/internal/config"
	"clinic-backend/internal/models"
)

// ProfessionalStore reads stored commission profiles
type ProfessionalStore interface {
	GetProfessional(ctx context.Context, id string) (*models.Professional, error)
}

// CommissionResolver settles the commission terms for a payment.
// Each field comes from the stored profile first, then the request, then the default.
type CommissionResolver struct {
	store       ProfessionalStore
	defaultRate float64
}

func NewCommissionResolver(store ProfessionalStore, cfg config.PaymentsConfig) *CommissionResolver {
	return &CommissionResolver{store: store, defaultRate: cfg.DefaultCommissionRate}
}

// Resolve returns a *models.ResolutionError only when the professional does not exist.
// A store that cannot be reached degrades to request and default values.
func (r *CommissionResolver) Resolve(ctx context.Context, req *models.PaymentRequest) (models.CommissionTerms, error) {
	profID := req.ProfessionalID.String()

	prof, err := r.store.GetProfessional(ctx, profID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.CommissionTerms{}, &models.ResolutionError{Entity: "professional", ID: profID, Err: err}
		}
		log.Printf("[Commission] Profile lookup failed for %s, using request values: %v", profID, err)
		prof = nil
	}

	return mergeCommission(prof, req, r.defaultRate), nil
}

func mergeCommission(prof *models.Professional, req *models.PaymentRequest, defaultRate float64) models.CommissionTerms {
	terms := models.CommissionTerms{
		Model:  models.CommissionModelCommissioned,
		Rate:   defaultRate,
		Source: "default",
	}

	if req.CommissionModel != "" {
		terms.Model = req.CommissionModel
		terms.Source = "request"
	}
	if req.CommissionRate != nil {
		terms.Rate = *req.CommissionRate
	}
	if req.RentalBaseCents != nil {
		terms.RentalBaseCents = *req.RentalBaseCents
	}

	if prof == nil {
		return terms
	}

	terms.PayoutAccountID = prof.PayoutAccountID
	if prof.CommissionModel != nil {
		if m := models.CommissionModel(*prof.CommissionModel); m.Valid() {
			terms.Model = m
			terms.Source = "profile"
		}
	}
	if prof.CommissionRate != nil && validRate(*prof.CommissionRate) {
		terms.Rate = *prof.CommissionRate
	}
	if prof.RentalBaseCents != nil && *prof.RentalBaseCents >= 0 {
		terms.RentalBaseCents = *prof.RentalBaseCents
	}
	return terms
}
