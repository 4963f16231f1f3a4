package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"clinic-backend/internal/middleware"
	"clinic-backend/internal/models"
	"clinic-backend/pkg/utils"

	"github.com/gorilla/mux"
)

// SettingsAPI is satisfied by *services.SystemSettingService
type SettingsAPI interface {
	GetSetting(ctx context.Context, key string) (*models.SystemSetting, error)
	ListSettings(ctx context.Context) ([]*models.SystemSetting, error)
	UpsertSetting(ctx context.Context, key, value, description, updatedBy string) error
}

var secretSettings = map[string]bool{
	models.SettingRazorpayKeySecret: true,
	models.SettingRazorpayWebhook:   true,
}

type SystemSettingHandler struct {
	Service SettingsAPI
}

func NewSystemSettingHandler(service SettingsAPI) *SystemSettingHandler {
	return &SystemSettingHandler{Service: service}
}

func (h *SystemSettingHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	setting, err := h.Service.GetSetting(r.Context(), key)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.Error(w, http.StatusNotFound, "setting not found")
			return
		}
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.JSON(w, http.StatusOK, maskSetting(setting))
}

func (h *SystemSettingHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.ListSettings(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	masked := make([]*models.SystemSetting, 0, len(settings))
	for _, s := range settings {
		masked = append(masked, maskSetting(s))
	}
	utils.JSON(w, http.StatusOK, masked)
}

func (h *SystemSettingHandler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var req models.UpdateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Caller not found in context")
		return
	}

	if err := h.Service.UpsertSetting(r.Context(), key, req.SettingValue, req.Description, claims.Subject); err != nil {
		var validation *models.ValidationError
		if errors.As(err, &validation) {
			utils.Error(w, http.StatusBadRequest, validation.Error())
			return
		}
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{"ok": true, "message": "Setting updated successfully"})
}

// maskSetting hides gateway secrets, keeping only whether they are set
func maskSetting(s *models.SystemSetting) *models.SystemSetting {
	if !secretSettings[s.SettingKey] || s.SettingValue == "" {
		return s
	}
	masked := *s
	masked.SettingValue = "********"
	return &masked
}
