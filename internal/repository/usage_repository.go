package repository

import (
	"context"
	"errors"
	"quota-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errIncrementContention = errors.New("usage increment did not converge")

// LimitSnapshot carries the global limit values frozen onto a usage row at
// creation time.
type LimitSnapshot struct {
	DailyLimit  int
	IsUnlimited bool
}

type UsageRepository interface {
	// IncrementIfAllowed performs the check-and-increment for one
	// (user, api_type, date) key as a single conditional UPDATE, creating
	// the row from snapshot on first use. It returns the row as of this
	// call plus whether the call was counted. A false result with a nil
	// error means the daily limit is spent.
	IncrementIfAllowed(ctx context.Context, userID string, apiType models.APIType, date string, snapshot LimitSnapshot) (*models.DailyUsageRecord, bool, error)
	GetUsage(ctx context.Context, userID string, apiType models.APIType, date string) (*models.DailyUsageRecord, error)
	ListForUser(ctx context.Context, userID string, date string) ([]models.DailyUsageRecord, error)
	ListByDate(ctx context.Context, date string) ([]models.DailyUsageRecord, error)
	ResetDailyCount(ctx context.Context, userID string, apiType models.APIType, date string) error
	ResnapshotLimits(ctx context.Context, date string, apiType models.APIType, snapshot LimitSnapshot) (int64, error)
}

type usageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

// incrementAttempts bounds the create/increment race loop. Two is enough in
// practice (lose the insert race once, then increment the winner's row); the
// third attempt covers a concurrent reset landing in between.
const incrementAttempts = 3

func (r *usageRepository) IncrementIfAllowed(ctx context.Context, userID string, apiType models.APIType, date string, snapshot LimitSnapshot) (*models.DailyUsageRecord, bool, error) {
	for attempt := 0; attempt < incrementAttempts; attempt++ {
		// The limit check and the increment share one statement so no two
		// calls can both observe the same pre-increment count, and no call
		// can slip past a spent limit. RETURNING hands back the exact row
		// state this call produced.
		var updated []models.DailyUsageRecord
		res := r.db.WithContext(ctx).Model(&updated).
			Clauses(clause.Returning{}).
			Where("user_id = ? AND api_type = ? AND usage_date = ?", userID, apiType, date).
			Where("is_unlimited OR daily_count < daily_limit").
			Update("daily_count", gorm.Expr("daily_count + 1"))
		if res.Error != nil {
			return nil, false, res.Error
		}
		if res.RowsAffected == 1 {
			rec := updated[0]
			return &rec, true, nil
		}

		// Zero rows: either no row exists for this date yet, or the limit
		// is spent. A plain read distinguishes the two.
		existing, err := r.GetUsage(ctx, userID, apiType, date)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}

		rec := models.DailyUsageRecord{
			UserID:      userID,
			APIType:     apiType,
			UsageDate:   date,
			DailyCount:  1,
			DailyLimit:  snapshot.DailyLimit,
			IsUnlimited: snapshot.IsUnlimited,
		}
		res = r.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&rec)
		if res.Error != nil {
			return nil, false, res.Error
		}
		if res.RowsAffected == 1 {
			return &rec, true, nil
		}
		// Lost the insert race to a concurrent first call; increment the
		// winner's row on the next pass.
	}
	return nil, false, errIncrementContention
}

func (r *usageRepository) GetUsage(ctx context.Context, userID string, apiType models.APIType, date string) (*models.DailyUsageRecord, error) {
	var rec models.DailyUsageRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND api_type = ? AND usage_date = ?", userID, apiType, date).
		First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *usageRepository) ListForUser(ctx context.Context, userID string, date string) ([]models.DailyUsageRecord, error) {
	var recs []models.DailyUsageRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND usage_date = ?", userID, date).
		Order("api_type asc").
		Find(&recs).Error
	return recs, err
}

func (r *usageRepository) ListByDate(ctx context.Context, date string) ([]models.DailyUsageRecord, error) {
	var recs []models.DailyUsageRecord
	err := r.db.WithContext(ctx).
		Where("usage_date = ?", date).
		Order("user_id asc, api_type asc").
		Find(&recs).Error
	return recs, err
}

// ResetDailyCount zeroes the counter while keeping the row so the snapshot
// limit survives the reset. A missing row is a successful no-op.
func (r *usageRepository) ResetDailyCount(ctx context.Context, userID string, apiType models.APIType, date string) error {
	return r.db.WithContext(ctx).Model(&models.DailyUsageRecord{}).
		Where("user_id = ? AND api_type = ? AND usage_date = ?", userID, apiType, date).
		Update("daily_count", 0).Error
}

func (r *usageRepository) ResnapshotLimits(ctx context.Context, date string, apiType models.APIType, snapshot LimitSnapshot) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.DailyUsageRecord{}).
		Where("api_type = ? AND usage_date = ?", apiType, date).
		Updates(map[string]interface{}{
			"daily_limit":  snapshot.DailyLimit,
			"is_unlimited": snapshot.IsUnlimited,
		})
	return res.RowsAffected, res.Error
}
