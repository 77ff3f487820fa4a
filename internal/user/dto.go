package user

import (
	"regexp"

	"github.com/frahmantamala/intranet-portal/internal/core/common/validation"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type CreateUserDTO struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Role        string `json:"role,omitempty"`
}

func (d CreateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required().MinLength(3).MaxLength(50).
		Matches(usernamePattern, "username may only contain letters, digits and underscores")
	v.Field("password", d.Password).Required().MinLength(8).MaxLength(100)
	v.Field("displayName", d.DisplayName).Required().MaxLength(100)
	v.Field("email", d.Email).Required().MaxLength(255).Email()
	v.Field("role", d.Role).OneOf(RoleAdmin, RoleUser)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateUserDTO is a partial update. Role and IsActive are admin only.
type UpdateUserDTO struct {
	DisplayName *string `json:"displayName,omitempty"`
	Email       *string `json:"email,omitempty"`
	Role        *string `json:"role,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

func (d UpdateUserDTO) Validate() error {
	v := validation.NewValidator()
	if d.DisplayName != nil {
		v.Field("displayName", d.DisplayName).Required().MaxLength(100)
	}
	if d.Email != nil {
		v.Field("email", d.Email).Required().MaxLength(255).Email()
	}
	if d.Role != nil {
		v.Field("role", d.Role).Required().OneOf(RoleAdmin, RoleUser)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ResetPasswordDTO struct {
	CurrentPassword string `json:"currentPassword,omitempty"`
	NewPassword     string `json:"newPassword"`
}

func (d ResetPasswordDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("newPassword", d.NewPassword).Required().MinLength(8).MaxLength(100)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type PreferencesDTO struct {
	ThemePreference  *string `json:"themePreference,omitempty"`
	SidebarCollapsed *bool   `json:"sidebarCollapsed,omitempty"`
}

func (d PreferencesDTO) Validate() error {
	v := validation.NewValidator()
	if d.ThemePreference != nil {
		v.Field("themePreference", d.ThemePreference).Required().OneOf(ThemeLight, ThemeDark)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListFilter struct {
	ActiveOnly bool
	Role       string
}

type MessageResponse struct {
	Message string `json:"message"`
}
