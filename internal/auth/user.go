package auth

import (
	"context"

	userDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/user"
)

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// User is the authenticated caller attached to the request context.
type User struct {
	ID               int64  `json:"id"`
	Username         string `json:"username"`
	DisplayName      string `json:"displayName"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	ThemePreference  string `json:"themePreference"`
	SidebarCollapsed bool   `json:"sidebarCollapsed"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
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
	}
}

type ctxKey string

const ContextUserKey ctxKey = "user"

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}
