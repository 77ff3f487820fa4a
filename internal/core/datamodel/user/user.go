package user

import "time"

type User struct {
	ID               int64      `gorm:"primaryKey"`
	Username         string     `gorm:"column:username;uniqueIndex;size:50;not null"`
	PasswordHash     string     `gorm:"column:password_hash;not null"`
	DisplayName      string     `gorm:"column:display_name;size:100;not null"`
	Email            string     `gorm:"column:email;uniqueIndex;size:255;not null"`
	Role             string     `gorm:"column:role;size:20;not null;default:User"`
	ThemePreference  string     `gorm:"column:theme_preference;size:10;not null;default:Light"`
	SidebarCollapsed bool       `gorm:"column:sidebar_collapsed;not null;default:false"`
	IsActive         bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
	LastLoginAt      *time.Time `gorm:"column:last_login_at"`
}

func (User) TableName() string {
	return "users"
}
