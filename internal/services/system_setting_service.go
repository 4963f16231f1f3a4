package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"clinic-backend/internal/cache"
	"clinic-backend/internal/models"
)

const settingCacheTTL = 5 * time.Minute

// SettingStore is the persistence the settings service needs
type SettingStore interface {
	Get(ctx context.Context, key string) (*models.SystemSetting, error)
	List(ctx context.Context) ([]*models.SystemSetting, error)
	Upsert(ctx context.Context, key, value, description, updatedBy string) error
}

// SettingCache is satisfied by *cache.Cache
type SettingCache interface {
	GetCached(ctx context.Context, key string) ([]byte, bool)
	SetCached(ctx context.Context, key string, data []byte, ttl time.Duration)
	InvalidateKeys(ctx context.Context, keys ...string)
}

type SystemSettingService struct {
	Repo  SettingStore
	cache SettingCache
}

func NewSystemSettingService(repo SettingStore, c SettingCache) *SystemSettingService {
	return &SystemSettingService{Repo: repo, cache: c}
}

func (s *SystemSettingService) GetSetting(ctx context.Context, key string) (*models.SystemSetting, error) {
	return s.Repo.Get(ctx, key)
}

func (s *SystemSettingService) ListSettings(ctx context.Context) ([]*models.SystemSetting, error) {
	return s.Repo.List(ctx)
}

// UpsertSetting validates known keys, stores the value and drops the cached copy
func (s *SystemSettingService) UpsertSetting(ctx context.Context, key, value, description, updatedBy string) error {
	if err := validateSetting(key, value); err != nil {
		return err
	}
	if err := s.Repo.Upsert(ctx, key, value, description, updatedBy); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.InvalidateKeys(ctx, fmt.Sprintf(cache.SettingKeyFmt, key))
	}
	log.Printf("[Settings] %s updated by %s", key, updatedBy)
	return nil
}

// Value returns a setting value, served from cache when possible
func (s *SystemSettingService) Value(ctx context.Context, key string) (string, error) {
	cacheKey := fmt.Sprintf(cache.SettingKeyFmt, key)
	if s.cache != nil {
		if data, ok := s.cache.GetCached(ctx, cacheKey); ok {
			return string(data), nil
		}
	}

	setting, err := s.Repo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if s.cache != nil {
		s.cache.SetCached(ctx, cacheKey, []byte(setting.SettingValue), settingCacheTTL)
	}
	return setting.SettingValue, nil
}

// ReferralFeePercent returns the globally configured referral fee fraction
func (s *SystemSettingService) ReferralFeePercent(ctx context.Context) (float64, error) {
	value, err := s.Value(ctx, models.SettingReferralFeePercent)
	if err != nil {
		return 0, err
	}
	percent, err := strconv.ParseFloat(value, 64)
	if err != nil || !validRate(percent) {
		return 0, fmt.Errorf("invalid %s value %q", models.SettingReferralFeePercent, value)
	}
	return percent, nil
}

// OnlinePaymentsEnabled checks the gateway toggle. Unknown means disabled.
func (s *SystemSettingService) OnlinePaymentsEnabled(ctx context.Context) bool {
	value, err := s.Value(ctx, models.SettingOnlinePaymentEnabled)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			log.Printf("[Settings] Failed to read %s: %v", models.SettingOnlinePaymentEnabled, err)
		}
		return false
	}
	return value == "true"
}

// StringValue returns the setting or "" when unset or unreadable
func (s *SystemSettingService) StringValue(ctx context.Context, key string) string {
	value, err := s.Value(ctx, key)
	if err != nil {
		return ""
	}
	return value
}

func validateSetting(key, value string) error {
	switch key {
	case models.SettingReferralFeePercent:
		percent, err := strconv.ParseFloat(value, 64)
		if err != nil || !validRate(percent) {
			return models.NewValidationError("setting_value", "%s must be a number between 0 and 1", key)
		}
	case models.SettingOnlinePaymentEnabled:
		if value != "true" && value != "false" {
			return models.NewValidationError("setting_value", "%s must be true or false", key)
		}
	case models.SettingRazorpayKeyID, models.SettingRazorpayKeySecret, models.SettingRazorpayWebhook:
	default:
		return models.NewValidationError("setting_key", "unknown setting %q", key)
	}
	return nil
}
