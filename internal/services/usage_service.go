package services

import (
	"context"
	"quota-api/internal/logger"
	"quota-api/internal/models"
	apperrors "quota-api/internal/pkg/errors"
	"quota-api/internal/repository"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// UsageService is the daily usage ledger. RecordUsage is not idempotent
// under retry: a caller that times out cannot tell whether its call was
// counted, and retrying may count it twice.
type UsageService interface {
	RecordUsage(ctx context.Context, userID string, apiType models.APIType) (*models.UsageResult, error)
	GetAllUserUsage(ctx context.Context, userID string) (map[models.APIType]*models.UsageResult, error)
	GetUsageByDate(ctx context.Context, date string) (*UsageReport, error)
	ResetDailyUsage(ctx context.Context, userID string, apiType models.APIType, date string) error
	ResnapshotUsageRecords(ctx context.Context) (*ResnapshotReport, error)
}

type UserTotal struct {
	UserID     string `json:"user_id"`
	TotalCalls int    `json:"total_calls"`
}

// UsageReport is the admin view of one day's ledger plus derived aggregates.
type UsageReport struct {
	Date        string                    `json:"date"`
	Records     []models.DailyUsageRecord `json:"records"`
	ActiveUsers int                       `json:"active_users"`
	TotalCalls  int                       `json:"total_calls"`
	ByType      map[models.APIType]int    `json:"by_type"`
	TopUsers    []UserTotal               `json:"top_users"`
}

// ResnapshotReport summarizes a bulk re-snapshot, including partial
// failures so the admin knows which api_types still carry stale limits.
type ResnapshotReport struct {
	Updated map[models.APIType]int64 `json:"updated"`
	Failed  int                      `json:"failed"`
}

const topUserCount = 10

type usageService struct {
	repo   repository.UsageRepository
	limits GlobalLimitService
}

func NewUsageService(repo repository.UsageRepository, limits GlobalLimitService) UsageService {
	return &usageService{
		repo:   repo,
		limits: limits,
	}
}

func (s *usageService) RecordUsage(ctx context.Context, userID string, apiType models.APIType) (*models.UsageResult, error) {
	if !apiType.Valid() {
		return nil, apperrors.ErrInvalidAPIType
	}

	date := models.Today()
	snapshot, err := s.limits.EffectiveLimit(ctx, apiType)
	if err != nil {
		return nil, err
	}

	rec, allowed, err := s.repo.IncrementIfAllowed(ctx, userID, apiType, date, snapshot)
	if err != nil {
		return nil, apperrors.WrapStorage(err, "failed to record usage")
	}

	if !allowed {
		logger.Logger.WithFields(logrus.Fields{
			"user_id":  userID,
			"api_type": apiType,
			"limit":    rec.DailyLimit,
		}).Info("daily limit reached")
	}
	return models.ResultFor(rec, allowed), nil
}

// GetAllUserUsage is a pure read; it never creates rows. Success on each
// result reports whether a further call would currently be allowed.
func (s *usageService) GetAllUserUsage(ctx context.Context, userID string) (map[models.APIType]*models.UsageResult, error) {
	recs, err := s.repo.ListForUser(ctx, userID, models.Today())
	if err != nil {
		return nil, apperrors.WrapStorage(err, "failed to list usage")
	}

	usage := make(map[models.APIType]*models.UsageResult, len(recs))
	for i := range recs {
		rec := recs[i]
		wouldAllow := rec.IsUnlimited || rec.DailyCount < rec.DailyLimit
		usage[rec.APIType] = models.ResultFor(&rec, wouldAllow)
	}
	return usage, nil
}

func (s *usageService) GetUsageByDate(ctx context.Context, date string) (*UsageReport, error) {
	if date == "" {
		date = models.Today()
	}
	if _, err := time.Parse(models.DateFormat, date); err != nil {
		return nil, apperrors.ErrInvalidDate
	}

	recs, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, apperrors.WrapStorage(err, "failed to list usage by date")
	}

	report := &UsageReport{
		Date:    date,
		Records: recs,
		ByType:  make(map[models.APIType]int),
	}

	perUser := make(map[string]int)
	for _, rec := range recs {
		report.TotalCalls += rec.DailyCount
		report.ByType[rec.APIType] += rec.DailyCount
		perUser[rec.UserID] += rec.DailyCount
	}
	report.ActiveUsers = len(perUser)

	for userID, total := range perUser {
		report.TopUsers = append(report.TopUsers, UserTotal{UserID: userID, TotalCalls: total})
	}
	sort.Slice(report.TopUsers, func(i, j int) bool {
		if report.TopUsers[i].TotalCalls != report.TopUsers[j].TotalCalls {
			return report.TopUsers[i].TotalCalls > report.TopUsers[j].TotalCalls
		}
		return report.TopUsers[i].UserID < report.TopUsers[j].UserID
	})
	if len(report.TopUsers) > topUserCount {
		report.TopUsers = report.TopUsers[:topUserCount]
	}
	return report, nil
}

// ResetDailyUsage zeroes the counter for one key. Resetting a key with no
// row is a successful no-op.
func (s *usageService) ResetDailyUsage(ctx context.Context, userID string, apiType models.APIType, date string) error {
	if !apiType.Valid() {
		return apperrors.ErrInvalidAPIType
	}
	if date == "" {
		date = models.Today()
	}
	if _, err := time.Parse(models.DateFormat, date); err != nil {
		return apperrors.ErrInvalidDate
	}

	if err := s.repo.ResetDailyCount(ctx, userID, apiType, date); err != nil {
		return apperrors.WrapStorage(err, "failed to reset usage")
	}

	logger.Logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"api_type": apiType,
		"date":     date,
	}).Info("daily usage reset")
	return nil
}

// ResnapshotUsageRecords rewrites daily_limit/is_unlimited on today's rows
// from the current global settings. Per-type failures are reported rather
// than aborting the whole pass.
func (s *usageService) ResnapshotUsageRecords(ctx context.Context) (*ResnapshotReport, error) {
	date := models.Today()
	report := &ResnapshotReport{Updated: make(map[models.APIType]int64)}

	for _, apiType := range models.AllAPITypes() {
		snapshot, err := s.limits.EffectiveLimit(ctx, apiType)
		if err == nil {
			var rows int64
			rows, err = s.repo.ResnapshotLimits(ctx, date, apiType, snapshot)
			if err == nil {
				report.Updated[apiType] = rows
				continue
			}
		}
		report.Failed++
		logger.Logger.WithFields(logrus.Fields{
			"api_type": apiType,
			"date":     date,
			"error":    err,
		}).Error("failed to re-snapshot usage records")
	}
	return report, nil
}
