package handlers

import (
	"encoding/json"
	"net/http"
	"quota-api/internal/models"
	apperrors "quota-api/internal/pkg/errors"
	"quota-api/internal/services"
)

type AdminHandler struct {
	usageService services.UsageService
	limitService services.GlobalLimitService
}

func NewAdminHandler(usageService services.UsageService, limitService services.GlobalLimitService) *AdminHandler {
	return &AdminHandler{
		usageService: usageService,
		limitService: limitService,
	}
}

func (h *AdminHandler) GetGlobalLimits(w http.ResponseWriter, r *http.Request) {
	limits, err := h.limitService.GetGlobalLimits(r.Context())
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "Limits temporarily unavailable")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"limits":  limits,
	})
}

type setGlobalLimitRequest struct {
	APIType     models.APIType `json:"api_type"`
	DailyLimit  int            `json:"daily_limit"`
	IsUnlimited bool           `json:"is_unlimited"`
}

// SetGlobalLimit updates one api_type's default quota and immediately
// re-snapshots today's existing rows so the change takes effect now rather
// than on next row creation.
func (h *AdminHandler) SetGlobalLimit(w http.ResponseWriter, r *http.Request) {
	var req setGlobalLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.limitService.SetGlobalLimit(r.Context(), req.APIType, req.DailyLimit, req.IsUnlimited); err != nil {
		switch {
		case apperrors.Is(err, apperrors.ErrInvalidAPIType):
			respondWithError(w, http.StatusBadRequest, "Unrecognized api type")
		case apperrors.Is(err, apperrors.ErrInvalidLimit):
			respondWithError(w, http.StatusBadRequest, "Daily limit must be between 1 and 10000")
		default:
			respondWithError(w, http.StatusServiceUnavailable, "Failed to store limit")
		}
		return
	}

	report, err := h.usageService.ResnapshotUsageRecords(r.Context())
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "Limit stored but re-snapshot failed")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"resnapshot": report,
	})
}

type resetUsageRequest struct {
	UserID  string         `json:"user_id"`
	APIType models.APIType `json:"api_type"`
	Date    string         `json:"date,omitempty"`
}

func (h *AdminHandler) ResetDailyUsage(w http.ResponseWriter, r *http.Request) {
	var req resetUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	err := h.usageService.ResetDailyUsage(r.Context(), req.UserID, req.APIType, req.Date)
	if err != nil {
		switch {
		case apperrors.Is(err, apperrors.ErrInvalidAPIType):
			respondWithError(w, http.StatusBadRequest, "Unrecognized api type")
		case apperrors.Is(err, apperrors.ErrInvalidDate):
			respondWithError(w, http.StatusBadRequest, "Invalid date")
		default:
			respondWithError(w, http.StatusServiceUnavailable, "Failed to reset usage")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *AdminHandler) GetUsageByDate(w http.ResponseWriter, r *http.Request) {
	report, err := h.usageService.GetUsageByDate(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrInvalidDate) {
			respondWithError(w, http.StatusBadRequest, "Invalid date")
			return
		}
		respondWithError(w, http.StatusServiceUnavailable, "Usage temporarily unavailable")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"report":  report,
	})
}
