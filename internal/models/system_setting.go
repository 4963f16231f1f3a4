package models

import "time"

// Setting keys read by the payment pipeline
const (
	SettingReferralFeePercent   = "referral_fee_percent"
	SettingOnlinePaymentEnabled = "online_payment_enabled"
	SettingRazorpayKeyID        = "razorpay_key_id"
	SettingRazorpayKeySecret    = "razorpay_key_secret"
	SettingRazorpayWebhook      = "razorpay_webhook_secret"
)

type SystemSetting struct {
	ID           int       `json:"id"`
	SettingKey   string    `json:"setting_key"`
	SettingValue string    `json:"setting_value"`
	Description  string    `json:"description"`
	UpdatedAt    time.Time `json:"updated_at"`
	UpdatedBy    string    `json:"updated_by"`
}

type UpdateSettingRequest struct {
	SettingValue string `json:"setting_value"`
	Description  string `json:"description,omitempty"`
}
