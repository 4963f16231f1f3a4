package split

import (
	"errors"
	"reflect"
	"testing"

	"clinic-backend/internal/models"
)

var noReferral = models.ReferralContext{}

func withReferral(percent float64) models.ReferralContext {
	return models.ReferralContext{HasReferral: true, ReferralPercent: percent, ReferralDestination: "acc_ref"}
}

func TestComputeScenarios(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		fee      float64
		model    models.CommissionModel
		rate     float64
		referral models.ReferralContext
		want     models.SplitResult
	}{
		{
			name:   "commissioned without referral",
			amount: 10000, fee: 0.0599, model: models.CommissionModelCommissioned, rate: 0.3,
			referral: noReferral,
			want: models.SplitResult{
				PlatformFeeCents: 599, PlatformFeeTotalCents: 599, ReferralFeeCents: 0,
				ClinicShareCents: 2820, ProfessionalShareCents: 6581,
			},
		},
		{
			name:   "commissioned with referral",
			amount: 10000, fee: 0.0599, model: models.CommissionModelCommissioned, rate: 0.3,
			referral: withReferral(0.0233),
			want: models.SplitResult{
				PlatformFeeCents: 366, PlatformFeeTotalCents: 599, ReferralFeeCents: 233,
				ClinicShareCents: 2820, ProfessionalShareCents: 6581,
			},
		},
		{
			name:   "rental keeps nothing for the clinic",
			amount: 5000, fee: 0.0599, model: models.CommissionModelRental, rate: 0.9,
			referral: noReferral,
			want: models.SplitResult{
				PlatformFeeCents: 300, PlatformFeeTotalCents: 300,
				ClinicShareCents: 0, ProfessionalShareCents: 4700,
			},
		},
		{
			name:   "hybrid matches commissioned",
			amount: 10000, fee: 0.0599, model: models.CommissionModelHybrid, rate: 0.3,
			referral: noReferral,
			want: models.SplitResult{
				PlatformFeeCents: 599, PlatformFeeTotalCents: 599,
				ClinicShareCents: 2820, ProfessionalShareCents: 6581,
			},
		},
		{
			name:   "referral clamped to platform fee",
			amount: 10000, fee: 0.01, model: models.CommissionModelCommissioned, rate: 0.5,
			referral: withReferral(0.05),
			want: models.SplitResult{
				PlatformFeeCents: 0, PlatformFeeTotalCents: 100, ReferralFeeCents: 100,
				ClinicShareCents: 4950, ProfessionalShareCents: 4950,
			},
		},
		{
			name:   "zero amount",
			amount: 0, fee: 0.0599, model: models.CommissionModelCommissioned, rate: 0.5,
			referral: withReferral(0.0233),
			want:     models.SplitResult{},
		},
		{
			name:   "full platform fee leaves nothing to share",
			amount: 777, fee: 1, model: models.CommissionModelCommissioned, rate: 0.5,
			referral: noReferral,
			want: models.SplitResult{PlatformFeeCents: 777, PlatformFeeTotalCents: 777},
		},
		{
			name:   "half cent rounds away from zero",
			amount: 1, fee: 0.5, model: models.CommissionModelCommissioned, rate: 0.5,
			referral: noReferral,
			want: models.SplitResult{PlatformFeeCents: 1, PlatformFeeTotalCents: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.amount, tt.fee, tt.model, tt.rate, tt.referral)
			if got != tt.want {
				t.Fatalf("Compute() = %+v, want %+v", got, tt.want)
			}
			if err := Verify(tt.amount, got); err != nil {
				t.Fatalf("Verify() = %v", err)
			}
		})
	}
}

func TestComputeInvariantsHoldAcrossGrid(t *testing.T) {
	amounts := []int64{0, 1, 2, 3, 7, 99, 100, 101, 1234, 5000, 9999, 10000, 123457, 99999999}
	rates := []float64{0, 0.0001, 0.0233, 0.0599, 0.1, 0.3, 0.333, 0.5, 0.6667, 0.99, 1}
	modelsList := []models.CommissionModel{
		models.CommissionModelCommissioned, models.CommissionModelRental, models.CommissionModelHybrid,
	}

	for _, amount := range amounts {
		for _, fee := range rates {
			for _, rate := range rates {
				for _, model := range modelsList {
					for _, ref := range []models.ReferralContext{noReferral, withReferral(0.0233), withReferral(0.5)} {
						got := Compute(amount, fee, model, rate, ref)
						if err := Verify(amount, got); err != nil {
							t.Fatalf("amount=%d fee=%v rate=%v model=%s ref=%+v: %v", amount, fee, rate, model, ref, err)
						}
						wantTotal := Compute(amount, fee, model, 0, noReferral).PlatformFeeTotalCents
						if got.PlatformFeeTotalCents != wantTotal {
							t.Fatalf("platform fee total depends on referral/commission: %d vs %d", got.PlatformFeeTotalCents, wantTotal)
						}
						if model == models.CommissionModelRental && got.ClinicShareCents != 0 {
							t.Fatalf("rental clinic share = %d, want 0", got.ClinicShareCents)
						}
					}
				}
			}
		}
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	ref := withReferral(0.0233)
	first := Compute(987654, 0.0599, models.CommissionModelHybrid, 0.37, ref)
	for i := 0; i < 100; i++ {
		if got := Compute(987654, 0.0599, models.CommissionModelHybrid, 0.37, ref); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: %+v != %+v", i, got, first)
		}
	}
}

func TestCommissionRateIsTheClinicShare(t *testing.T) {
	got := Compute(10000, 0, models.CommissionModelCommissioned, 0.8, noReferral)
	if got.ClinicShareCents != 8000 || got.ProfessionalShareCents != 2000 {
		t.Fatalf("clinic=%d professional=%d, want 8000/2000", got.ClinicShareCents, got.ProfessionalShareCents)
	}
}

func TestVerifyRejectsBrokenSplits(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		split  models.SplitResult
	}{
		{"negative share", 100, models.SplitResult{ProfessionalShareCents: 110, ClinicShareCents: -10}},
		{"fee parts do not add up", 100, models.SplitResult{PlatformFeeCents: 5, ReferralFeeCents: 1, PlatformFeeTotalCents: 5, ProfessionalShareCents: 95}},
		{"shares do not add up", 100, models.SplitResult{PlatformFeeCents: 6, PlatformFeeTotalCents: 6, ProfessionalShareCents: 90}},
		{"negative amount", -1, models.SplitResult{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.amount, tt.split)
			if !errors.Is(err, models.ErrInvariantViolation) {
				t.Fatalf("Verify() = %v, want ErrInvariantViolation", err)
			}
		})
	}
}
