package services

import (
	"crypto/rand"
	"encoding/hex"
	"quota-api/internal/logger"
	"quota-api/internal/repository"
	"time"

	"gorm.io/gorm"
)

const adminTokenTTL = 24 * time.Hour

// AdminTokenService rotates the short-lived operator token used by the ops
// bootstrap endpoint.
type AdminTokenService struct {
	repo repository.AdminTokenRepository
}

func NewAdminTokenService(repo repository.AdminTokenRepository) *AdminTokenService {
	return &AdminTokenService{repo: repo}
}

func (s *AdminTokenService) GetOrCreateAdminToken() (string, error) {
	token, err := s.repo.GetLatestToken()
	if err == gorm.ErrRecordNotFound || (err == nil && token.Expired(time.Now())) {
		newToken := generateSecureToken(32)
		if err := s.repo.CreateToken(newToken, time.Now().Add(adminTokenTTL)); err != nil {
			return "", err
		}
		if err := s.repo.DeleteExpiredTokens(); err != nil {
			logger.Logger.WithField("error", err).Warn("failed to purge expired admin tokens")
		}
		return newToken, nil
	} else if err != nil {
		return "", err
	}
	return token.Token, nil
}

func generateSecureToken(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}
