package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/user"
)

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"

	ThemeLight = "Light"
	ThemeDark  = "Dark"
)

// User is the account as returned by the API. The password hash never
// leaves the service layer.
type User struct {
	ID               int64      `json:"id"`
	Username         string     `json:"username"`
	DisplayName      string     `json:"displayName"`
	Email            string     `json:"email"`
	Role             string     `json:"role"`
	ThemePreference  string     `json:"themePreference"`
	SidebarCollapsed bool       `json:"sidebarCollapsed"`
	IsActive         bool       `json:"isActive"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:               u.ID,
		Username:         u.Username,
		DisplayName:      u.DisplayName,
		Email:            u.Email,
		Role:             u.Role,
		ThemePreference:  u.ThemePreference,
		SidebarCollapsed: u.SidebarCollapsed,
		IsActive:         u.IsActive,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
		LastLoginAt:      u.LastLoginAt,
	}
}

func FromDataModels(rows []*userDatamodel.User) []*User {
	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}
	return users
}
