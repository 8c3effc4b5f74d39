package models

import "time"

// DateFormat is the canonical layout for usage_date values. Usage days are
// UTC calendar days; every component that derives "today" goes through
// Today() so the boundary is consistent across the service.
const DateFormat = "2006-01-02"

func Today() string {
	return time.Now().UTC().Format(DateFormat)
}

// DailyUsageRecord is the per-user, per-api-type counter for a single
// calendar day. DailyLimit and IsUnlimited are snapshots of the global
// configuration at the time the row was created (or last re-snapshotted),
// not live references.
type DailyUsageRecord struct {
	ID          uint      `gorm:"primarykey" json:"-"`
	UserID      string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_usage_user_type_date" json:"user_id"`
	APIType     APIType   `gorm:"type:varchar(32);not null;uniqueIndex:idx_usage_user_type_date" json:"api_type"`
	UsageDate   string    `gorm:"type:date;not null;uniqueIndex:idx_usage_user_type_date" json:"usage_date"`
	DailyCount  int       `gorm:"not null;default:0" json:"daily_count"`
	DailyLimit  int       `gorm:"not null" json:"daily_limit"`
	IsUnlimited bool      `gorm:"not null;default:false" json:"is_unlimited"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (DailyUsageRecord) TableName() string {
	return "daily_usage_records"
}

// UnlimitedRemaining is the sentinel reported in place of a remaining count
// when a record is unlimited.
const UnlimitedRemaining = -1

// UsageResult is what a single quota check reports back to the caller.
// Success says whether this call was permitted and counted; a false Success
// with Remaining 0 is the normal "limit reached" outcome, not an error.
type UsageResult struct {
	DailyCount int  `json:"daily_count"`
	DailyLimit int  `json:"daily_limit"`
	Remaining  int  `json:"remaining"`
	Unlimited  bool `json:"unlimited"`
	Success    bool `json:"success"`
}

// ResultFor derives the caller-facing view of a record after a check.
func ResultFor(rec *DailyUsageRecord, allowed bool) *UsageResult {
	res := &UsageResult{
		DailyCount: rec.DailyCount,
		DailyLimit: rec.DailyLimit,
		Unlimited:  rec.IsUnlimited,
		Success:    allowed,
	}
	if rec.IsUnlimited {
		res.Remaining = UnlimitedRemaining
		return res
	}
	res.Remaining = rec.DailyLimit - rec.DailyCount
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	return res
}
