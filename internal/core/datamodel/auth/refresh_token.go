package auth

import "time"

type RefreshToken struct {
	ID              int64      `gorm:"primaryKey"`
	UserID          int64      `gorm:"column:user_id;index;not null"`
	Token           string     `gorm:"column:token;uniqueIndex;size:128;not null"`
	ExpiresAt       time.Time  `gorm:"column:expires_at;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	RevokedAt       *time.Time `gorm:"column:revoked_at"`
	ReplacedByToken *string    `gorm:"column:replaced_by_token;size:128"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
