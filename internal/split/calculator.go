// Package split divides a captured payment between the platform, a referring clinic,
// the hosting clinic and the treating professional.
//
// Compute is pure: no I/O, no clock, no randomness. Amounts are integer cents and every
// rate multiplication is done in exact decimal arithmetic before rounding, so the same
// inputs always produce the same SplitResult.
package split

import (
	"fmt"

	"clinic-backend/internal/models"

	"github.com/shopspring/decimal"
)

// Defaults used when neither the request nor a stored profile provides a value
const (
	DefaultPlatformFeePercent = 0.0599
	DefaultReferralPercent    = 0.0233
	DefaultCommissionRate     = 0.5
)

// Compute returns the split of amountCents.
//
// commissionRate is the clinic's fraction of the amount left after the platform fee
// (not the professional's). Callers must pass amountCents >= 0, rates in [0,1] and a
// valid model; Compute never panics for such inputs.
func Compute(amountCents int64, platformFeePercent float64, model models.CommissionModel, commissionRate float64, referral models.ReferralContext) models.SplitResult {
	amount := decimal.NewFromInt(amountCents)

	platformFeeTotal := roundCents(amount, platformFeePercent)

	var referralFee int64
	if referral.HasReferral {
		referralFee = roundCents(amount, referral.ReferralPercent)
		// the platform's retained fee never goes negative
		if referralFee > platformFeeTotal {
			referralFee = platformFeeTotal
		}
	}

	remaining := amountCents - platformFeeTotal
	if remaining < 0 {
		remaining = 0
	}

	var clinicShare, professionalShare int64
	switch model {
	case models.CommissionModelRental:
		// rent is invoiced periodically elsewhere
		professionalShare = remaining
	default:
		// commissioned and hybrid share the same variable split; hybrid's fixed
		// rental base is invoiced elsewhere and is not touched here
		clinicShare = roundCents(decimal.NewFromInt(remaining), commissionRate)
		professionalShare = remaining - clinicShare
	}

	return models.SplitResult{
		PlatformFeeCents:       platformFeeTotal - referralFee,
		PlatformFeeTotalCents:  platformFeeTotal,
		ReferralFeeCents:       referralFee,
		ProfessionalShareCents: professionalShare,
		ClinicShareCents:       clinicShare,
	}
}

// Verify checks the conservation invariants of a split against the amount it was computed from.
func Verify(amountCents int64, s models.SplitResult) error {
	if amountCents < 0 {
		return fmt.Errorf("%w: negative amount %d", models.ErrInvariantViolation, amountCents)
	}
	fields := []struct {
		name  string
		value int64
	}{
		{"platform_fee_cents", s.PlatformFeeCents},
		{"platform_fee_total_cents", s.PlatformFeeTotalCents},
		{"referral_fee_cents", s.ReferralFeeCents},
		{"professional_share_cents", s.ProfessionalShareCents},
		{"clinic_share_cents", s.ClinicShareCents},
	}
	for _, f := range fields {
		if f.value < 0 {
			return fmt.Errorf("%w: %s is negative (%d)", models.ErrInvariantViolation, f.name, f.value)
		}
	}
	if s.PlatformFeeCents+s.ReferralFeeCents != s.PlatformFeeTotalCents {
		return fmt.Errorf("%w: platform fee %d + referral fee %d != platform fee total %d",
			models.ErrInvariantViolation, s.PlatformFeeCents, s.ReferralFeeCents, s.PlatformFeeTotalCents)
	}
	remaining := amountCents - s.PlatformFeeTotalCents
	if remaining < 0 {
		remaining = 0
	}
	if s.ProfessionalShareCents+s.ClinicShareCents != remaining {
		return fmt.Errorf("%w: professional %d + clinic %d != remaining %d",
			models.ErrInvariantViolation, s.ProfessionalShareCents, s.ClinicShareCents, remaining)
	}
	return nil
}

// roundCents returns amount * rate rounded half away from zero to whole cents
func roundCents(amount decimal.Decimal, rate float64) int64 {
	return amount.Mul(decimal.NewFromFloat(rate)).Round(0).IntPart()
}
