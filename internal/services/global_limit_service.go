package services

import (
	"context"
	"encoding/json"
	"fmt"
	"quota-api/internal/config"
	"quota-api/internal/logger"
	"quota-api/internal/models"
	apperrors "quota-api/internal/pkg/errors"
	"quota-api/internal/repository"

	"github.com/sirupsen/logrus"
)

type GlobalLimitService interface {
	// GetGlobalLimits returns one entry per known api_type, synthesizing a
	// fallback entry for types with no stored row yet.
	GetGlobalLimits(ctx context.Context) ([]models.GlobalAPILimit, error)
	// EffectiveLimit resolves the snapshot values a new usage row should
	// freeze for apiType: the stored global row, or the configured default.
	EffectiveLimit(ctx context.Context, apiType models.APIType) (repository.LimitSnapshot, error)
	SetGlobalLimit(ctx context.Context, apiType models.APIType, dailyLimit int, isUnlimited bool) error
}

type globalLimitService struct {
	repo  repository.GlobalLimitRepository
	cache CacheService
	cfg   *config.QuotaConfig
	ttl   config.CacheConfig
}

func NewGlobalLimitService(repo repository.GlobalLimitRepository, cache CacheService, quotaCfg *config.QuotaConfig, cacheCfg *config.CacheConfig) GlobalLimitService {
	return &globalLimitService{
		repo:  repo,
		cache: cache,
		cfg:   quotaCfg,
		ttl:   *cacheCfg,
	}
}

func limitCacheKey(apiType models.APIType) string {
	return fmt.Sprintf("global_limit:%s", apiType)
}

func (s *globalLimitService) GetGlobalLimits(ctx context.Context) ([]models.GlobalAPILimit, error) {
	stored, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, apperrors.WrapStorage(err, "failed to load global limits")
	}

	byType := make(map[models.APIType]models.GlobalAPILimit, len(stored))
	for _, l := range stored {
		byType[l.APIType] = l
	}

	limits := make([]models.GlobalAPILimit, 0, len(models.AllAPITypes()))
	for _, t := range models.AllAPITypes() {
		if l, ok := byType[t]; ok {
			limits = append(limits, l)
			continue
		}
		limits = append(limits, models.GlobalAPILimit{
			APIType:    t,
			DailyLimit: s.cfg.DefaultDailyLimit,
		})
	}
	return limits, nil
}

func (s *globalLimitService) EffectiveLimit(ctx context.Context, apiType models.APIType) (repository.LimitSnapshot, error) {
	if snap, ok := s.cachedLimit(ctx, apiType); ok {
		return snap, nil
	}

	limit, err := s.repo.Get(ctx, apiType)
	if err != nil {
		return repository.LimitSnapshot{}, apperrors.WrapStorage(err, "failed to load global limit")
	}

	snap := repository.LimitSnapshot{DailyLimit: s.cfg.DefaultDailyLimit}
	if limit != nil {
		snap = repository.LimitSnapshot{DailyLimit: limit.DailyLimit, IsUnlimited: limit.IsUnlimited}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, limitCacheKey(apiType), snap, s.ttl.DefaultTTL); err != nil {
			logger.Logger.WithFields(logrus.Fields{"api_type": apiType, "error": err}).Debug("limit cache write failed")
		}
	}
	return snap, nil
}

// cachedLimit is best-effort: any cache failure falls through to the
// database without affecting the request.
func (s *globalLimitService) cachedLimit(ctx context.Context, apiType models.APIType) (repository.LimitSnapshot, bool) {
	if s.cache == nil {
		return repository.LimitSnapshot{}, false
	}
	raw, err := s.cache.Get(ctx, limitCacheKey(apiType))
	if err != nil {
		return repository.LimitSnapshot{}, false
	}
	var snap repository.LimitSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return repository.LimitSnapshot{}, false
	}
	return snap, true
}

func (s *globalLimitService) SetGlobalLimit(ctx context.Context, apiType models.APIType, dailyLimit int, isUnlimited bool) error {
	if !apiType.Valid() {
		return apperrors.ErrInvalidAPIType
	}
	if !isUnlimited && (dailyLimit < models.MinDailyLimit || dailyLimit > models.MaxDailyLimit) {
		return apperrors.ErrInvalidLimit
	}

	if err := s.repo.Upsert(ctx, apiType, dailyLimit, isUnlimited); err != nil {
		return apperrors.WrapStorage(err, "failed to store global limit")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, limitCacheKey(apiType)); err != nil {
			logger.Logger.WithFields(logrus.Fields{"api_type": apiType, "error": err}).Warn("limit cache invalidation failed")
		}
	}

	logger.Logger.WithFields(logrus.Fields{
		"api_type":     apiType,
		"daily_limit":  dailyLimit,
		"is_unlimited": isUnlimited,
	}).Info("global limit updated")
	return nil
}
