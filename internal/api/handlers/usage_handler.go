package handlers

import (
	"encoding/json"
	"net/http"
	"quota-api/internal/config"
	"quota-api/internal/logger"
	"quota-api/internal/models"
	apperrors "quota-api/internal/pkg/errors"
	"quota-api/internal/services"

	"github.com/sirupsen/logrus"
)

type UsageHandler struct {
	usageService services.UsageService
	cfg          *config.QuotaConfig
}

func NewUsageHandler(usageService services.UsageService, cfg *config.QuotaConfig) *UsageHandler {
	return &UsageHandler{
		usageService: usageService,
		cfg:          cfg,
	}
}

type checkUsageRequest struct {
	APIType models.APIType `json:"apiType"`
}

// CheckUsage counts one call against today's quota and reports the
// post-increment state. A spent quota is a 200 with success=false, not an
// error.
func (h *UsageHandler) CheckUsage(w http.ResponseWriter, r *http.Request) {
	user, ok := services.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req checkUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.APIType.Valid() {
		respondWithError(w, http.StatusBadRequest, "Unrecognized api type")
		return
	}

	result, err := h.usageService.RecordUsage(r.Context(), user.ID, req.APIType)
	if err != nil {
		h.handleStorageFailure(w, user.ID, req.APIType, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": result.Success,
		"usage":   result,
	})
}

// GetUsage lists today's usage for every api_type the user has touched.
// Pure read, never creates rows.
func (h *UsageHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	user, ok := services.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	usage, err := h.usageService.GetAllUserUsage(r.Context(), user.ID)
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "Usage temporarily unavailable")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"usage":   usage,
	})
}

// handleStorageFailure applies the configured failure policy when the
// ledger cannot decide. Fail-open answers with an uncounted permissive
// result; fail-closed surfaces a retryable 503.
func (h *UsageHandler) handleStorageFailure(w http.ResponseWriter, userID string, apiType models.APIType, err error) {
	if !apperrors.IsStorage(err) {
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	logger.Logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"api_type": apiType,
		"policy":   h.cfg.FailurePolicy,
		"error":    err,
	}).Error("usage check failed at storage")

	if h.cfg.FailurePolicy == config.FailOpen {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"usage": &models.UsageResult{
				DailyLimit: h.cfg.DefaultDailyLimit,
				Remaining:  h.cfg.DefaultDailyLimit,
				Success:    true,
			},
			"degraded": true,
		})
		return
	}
	respondWithError(w, http.StatusServiceUnavailable, "Usage check temporarily unavailable")
}
