package services

import (
	"bytes"
	"fmt"

	"clinic-backend/internal/models"
	"clinic-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
)

// ReceiptService renders split statements
type ReceiptService struct {
	currency string
}

func NewReceiptService(currency string) *ReceiptService {
	return &ReceiptService{currency: currency}
}

// FormatCents renders an integer amount of minor units, e.g. 659 -> "6.59"
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// GenerateReceiptPDF creates a one-page statement of how a payment was divided
func (s *ReceiptService) GenerateReceiptPDF(tx *models.SplitTransaction) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Payment Split Statement", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", timeutil.Now().Format(timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Payment details
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Payment", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	appointment := "-"
	if tx.AppointmentID != nil {
		appointment = *tx.AppointmentID
	}
	gatewayPayment := "-"
	if tx.GatewayPaymentID != nil {
		gatewayPayment = *tx.GatewayPaymentID
	}
	rows := [][2]string{
		{"Reference", tx.IdempotencyKey},
		{"Recorded", timeutil.Format(tx.CreatedAt, timeutil.DisplayLayout)},
		{"Clinic", tx.ClinicID},
		{"Professional", tx.ProfessionalID},
		{"Appointment", appointment},
		{"Payment method", tx.PaymentMethod},
		{"Gateway payment", gatewayPayment},
		{"Commission model", fmt.Sprintf("%s (clinic rate %.2f%%)", tx.CommissionModel, tx.CommissionRate*100)},
	}
	for _, r := range rows {
		pdf.CellFormat(50, 7, r[0], "LB", 0, "L", false, 0, "")
		pdf.CellFormat(140, 7, r[1], "RB", 1, "L", false, 0, "")
	}
	pdf.Ln(5)

	// Split table
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Split", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(110, 7, "Beneficiary", "1", 0, "C", true, 0, "")
	pdf.CellFormat(80, 7, fmt.Sprintf("Amount (%s)", s.currency), "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	lines := []struct {
		label string
		cents int64
	}{
		{"Professional share", tx.ProfessionalShareCents},
		{"Clinic share", tx.ClinicShareCents},
		{"Referral fee", tx.ReferralFeeCents},
		{fmt.Sprintf("Platform fee (%.2f%% total)", tx.PlatformFeePercent*100), tx.PlatformFeeCents},
	}
	for _, l := range lines {
		pdf.CellFormat(110, 6, l.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(80, 6, FormatCents(l.cents), "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(110, 7, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(80, 7, FormatCents(tx.AmountCents), "1", 1, "R", false, 0, "")
	pdf.Ln(5)

	// Execution status
	pdf.SetFont("Arial", "", 10)
	settled := "not settled"
	if tx.SettledAt != nil {
		settled = "settled " + timeutil.Format(*tx.SettledAt, timeutil.DisplayLayout)
	}
	pdf.CellFormat(190, 6, fmt.Sprintf("Transfer status: %s, %s", tx.Status, settled), "", 1, "L", false, 0, "")
	if tx.Status == models.GatewayStatusSimulated {
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(190, 6, "Simulated: no money has been moved for this payment.", "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
