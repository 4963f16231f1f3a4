package services

import (
	"bytes"
	"testing"
	"time"

	"clinic-backend/internal/models"
)

func TestFormatCents(t *testing.T) {
	tests := map[int64]string{
		0:      "0.00",
		5:      "0.05",
		659:    "6.59",
		10000:  "100.00",
		-1234:  "-12.34",
		123456: "1234.56",
	}
	for cents, want := range tests {
		if got := FormatCents(cents); got != want {
			t.Errorf("FormatCents(%d) = %q, want %q", cents, got, want)
		}
	}
}

func TestGenerateReceiptPDF(t *testing.T) {
	appointment := appointmentA
	settled := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tx := &models.SplitTransaction{
		ID:                     7,
		IdempotencyKey:         "appt:" + appointmentA + ":pix",
		ClinicID:               clinicA,
		ProfessionalID:         professionalA,
		AppointmentID:          &appointment,
		PaymentMethod:          "pix",
		CommissionModel:        models.CommissionModelCommissioned,
		CommissionRate:         0.3,
		PlatformFeePercent:     0.0599,
		AmountCents:            10000,
		PlatformFeeCents:       366,
		PlatformFeeTotalCents:  599,
		ReferralFeeCents:       233,
		ProfessionalShareCents: 6581,
		ClinicShareCents:       2820,
		Status:                 models.GatewayStatusCompleted,
		SettledAt:              &settled,
		CreatedAt:              settled,
	}

	pdf, err := NewReceiptService("INR").GenerateReceiptPDF(tx)
	if err != nil {
		t.Fatalf("GenerateReceiptPDF: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Errorf("output is not a PDF: %q", pdf[:8])
	}

	tx.Status = models.GatewayStatusSimulated
	tx.SettledAt = nil
	if _, err := NewReceiptService("INR").GenerateReceiptPDF(tx); err != nil {
		t.Fatalf("GenerateReceiptPDF(simulated): %v", err)
	}
}
