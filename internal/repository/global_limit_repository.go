package repository

import (
	"context"
	"quota-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GlobalLimitRepository interface {
	GetAll(ctx context.Context) ([]models.GlobalAPILimit, error)
	Get(ctx context.Context, apiType models.APIType) (*models.GlobalAPILimit, error)
	Upsert(ctx context.Context, apiType models.APIType, dailyLimit int, isUnlimited bool) error
}

type globalLimitRepository struct {
	db *gorm.DB
}

func NewGlobalLimitRepository(db *gorm.DB) GlobalLimitRepository {
	return &globalLimitRepository{db: db}
}

func (r *globalLimitRepository) GetAll(ctx context.Context) ([]models.GlobalAPILimit, error) {
	var limits []models.GlobalAPILimit
	err := r.db.WithContext(ctx).Order("api_type asc").Find(&limits).Error
	return limits, err
}

func (r *globalLimitRepository) Get(ctx context.Context, apiType models.APIType) (*models.GlobalAPILimit, error) {
	var limit models.GlobalAPILimit
	err := r.db.WithContext(ctx).Where("api_type = ?", apiType).First(&limit).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &limit, nil
}

func (r *globalLimitRepository) Upsert(ctx context.Context, apiType models.APIType, dailyLimit int, isUnlimited bool) error {
	limit := models.GlobalAPILimit{
		APIType:     apiType,
		DailyLimit:  dailyLimit,
		IsUnlimited: isUnlimited,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "api_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"daily_limit", "is_unlimited", "updated_at"}),
		}).
		Create(&limit).Error
}
