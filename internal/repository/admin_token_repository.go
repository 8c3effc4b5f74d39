package repository

import (
	"quota-api/internal/models"
	"time"

	"gorm.io/gorm"
)

type AdminTokenRepository interface {
	GetLatestToken() (*models.AdminToken, error)
	CreateToken(token string, expiresAt time.Time) error
	DeleteExpiredTokens() error
}

type adminTokenRepository struct {
	db *gorm.DB
}

func NewAdminTokenRepository(db *gorm.DB) AdminTokenRepository {
	return &adminTokenRepository{db: db}
}

func (r *adminTokenRepository) GetLatestToken() (*models.AdminToken, error) {
	var token models.AdminToken
	if err := r.db.Order("created_at DESC").First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *adminTokenRepository) CreateToken(token string, expiresAt time.Time) error {
	return r.db.Create(&models.AdminToken{Token: token, ExpiresAt: expiresAt}).Error
}

func (r *adminTokenRepository) DeleteExpiredTokens() error {
	return r.db.Where("expires_at < ?", time.Now()).Delete(&models.AdminToken{}).Error
}
