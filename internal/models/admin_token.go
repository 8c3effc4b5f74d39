package models

import "time"

// AdminToken is a short-lived operator token handed out by the bootstrap
// endpoint. Tokens rotate daily; only the newest unexpired row is live.
type AdminToken struct {
	ID        uint      `gorm:"primarykey"`
	Token     string    `gorm:"type:varchar(128);uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AdminToken) TableName() string {
	return "admin_tokens"
}

func (t *AdminToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
