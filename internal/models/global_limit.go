package models

import "time"

// GlobalAPILimit holds the default daily quota for one api_type. DailyLimit
// is meaningless while IsUnlimited is set. Exactly one row exists per type;
// a missing row means callers fall back to the configured default.
type GlobalAPILimit struct {
	ID          uint      `gorm:"primarykey" json:"-"`
	APIType     APIType   `gorm:"type:varchar(32);not null;uniqueIndex" json:"api_type"`
	DailyLimit  int       `gorm:"not null" json:"daily_limit"`
	IsUnlimited bool      `gorm:"not null;default:false" json:"is_unlimited"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (GlobalAPILimit) TableName() string {
	return "global_api_limits"
}

const (
	MinDailyLimit = 1
	MaxDailyLimit = 10000
)
