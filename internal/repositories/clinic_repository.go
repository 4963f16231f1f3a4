package repositories

import (
	"context"
	"errors"

	"clinic-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ClinicRepository struct {
	DB *pgxpool.Pool
}

func NewClinicRepository(db *pgxpool.Pool) *ClinicRepository {
	return &ClinicRepository{DB: db}
}

// Get returns models.ErrNotFound when the clinic does not exist
func (r *ClinicRepository) Get(ctx context.Context, id string) (*models.Clinic, error) {
	query := `
		SELECT id::text, name, COALESCE(payout_account_id, ''), created_at
		FROM clinics
		WHERE id = $1
	`

	c := &models.Clinic{}
	err := r.DB.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.PayoutAccountID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetProfessional returns the professional with its stored commission profile
func (r *ClinicRepository) GetProfessional(ctx context.Context, id string) (*models.Professional, error) {
	query := `
		SELECT id::text, clinic_id::text, name, commission_model, commission_rate::float8,
		       rental_base_cents, COALESCE(payout_account_id, ''), created_at
		FROM professionals
		WHERE id = $1
	`

	p := &models.Professional{}
	err := r.DB.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.ClinicID, &p.Name, &p.CommissionModel, &p.CommissionRate,
		&p.RentalBaseCents, &p.PayoutAccountID, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetReferral returns the referral registered for the receiving clinic, joined with
// the referrer's payout account.
func (r *ClinicRepository) GetReferral(ctx context.Context, referredClinicID string) (*models.ClinicReferral, error) {
	query := `
		SELECT cr.referred_clinic_id::text, cr.referrer_clinic_id::text, cr.active,
		       COALESCE(c.payout_account_id, ''), cr.created_at
		FROM clinic_referrals cr
		JOIN clinics c ON c.id = cr.referrer_clinic_id
		WHERE cr.referred_clinic_id = $1
	`

	ref := &models.ClinicReferral{}
	err := r.DB.QueryRow(ctx, query, referredClinicID).Scan(
		&ref.ReferredClinicID, &ref.ReferrerClinicID, &ref.Active, &ref.PayoutAccountID, &ref.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ref, nil
}
