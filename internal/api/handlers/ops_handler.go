package handlers

import (
	"crypto/subtle"
	"net/http"
	"quota-api/internal/services"
)

// OpsHandler hands the on-call operator the current rotating admin token in
// exchange for the deployment's bootstrap secret.
type OpsHandler struct {
	tokenService    *services.AdminTokenService
	bootstrapSecret string
}

func NewOpsHandler(tokenService *services.AdminTokenService, bootstrapSecret string) *OpsHandler {
	return &OpsHandler{
		tokenService:    tokenService,
		bootstrapSecret: bootstrapSecret,
	}
}

func (h *OpsHandler) IssueAdminToken(w http.ResponseWriter, r *http.Request) {
	if h.bootstrapSecret == "" {
		respondWithError(w, http.StatusNotFound, "Not found")
		return
	}
	secret := r.Header.Get("X-Ops-Secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(h.bootstrapSecret)) != 1 {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	token, err := h.tokenService.GetOrCreateAdminToken()
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "Token unavailable")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
	})
}
