package user

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frahmantamala/intranet-portal/internal"
	"github.com/frahmantamala/intranet-portal/internal/auth"
	"github.com/frahmantamala/intranet-portal/internal/core/common/pagination"
	userDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/user"
	"github.com/frahmantamala/intranet-portal/internal/core/dberr"
)

type RepositoryAPI interface {
	Create(ctx context.Context, u *userDatamodel.User) error
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Update(ctx context.Context, u *userDatamodel.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]*userDatamodel.User, int64, error)
}

var (
	ErrUserNotFound          = internal.NewNotFoundError("User not found", internal.ErrCodeNotFound)
	ErrDuplicateUser         = internal.NewConflictError("Username or email already exists", internal.ErrCodeDuplicateUser)
	ErrDuplicateEmail        = internal.NewConflictError("Email already exists", internal.ErrCodeDuplicateEmail)
	ErrCurrentPasswordNeeded = internal.NewValidationError("Current password is required", internal.ErrCodeCurrentPasswordMissing)
	ErrWrongCurrentPassword  = internal.NewValidationError("Current password is incorrect", internal.ErrCodeInvalidCurrentPassword)
)

type Service struct {
	repo       RepositoryAPI
	policy     *auth.Policy
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, policy *auth.Policy, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		policy:     policy,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) List(ctx context.Context, actor *auth.User, filter ListFilter, params pagination.Params) (pagination.Page[*User], error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return pagination.Page[*User]{}, err
	}

	rows, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return pagination.Page[*User]{}, internal.NewInternalError("failed to list users", err)
	}
	return pagination.NewPage(FromDataModels(rows), params, total), nil
}

// Get returns a user to themselves or to an admin.
func (s *Service) Get(ctx context.Context, actor *auth.User, id int64) (*User, error) {
	if err := s.policy.CanMutate(actor, id); err != nil {
		return nil, err
	}
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, actor *auth.User, dto CreateUserDTO) (*User, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, dto.Username, dto.Email)
	if err != nil {
		s.logger.Error("failed to check for duplicate user", "error", err)
		return nil, internal.NewInternalError("failed to create user", err)
	}
	if exists {
		return nil, ErrDuplicateUser
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	role := dto.Role
	if role == "" {
		role = RoleUser
	}
	row := &userDatamodel.User{
		Username:        dto.Username,
		PasswordHash:    hash,
		DisplayName:     strings.TrimSpace(dto.DisplayName),
		Email:           dto.Email,
		Role:            role,
		ThemePreference: ThemeLight,
		IsActive:        true,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if dberr.IsUniqueViolation(err) {
			return nil, ErrDuplicateUser
		}
		s.logger.Error("failed to create user", "error", err)
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user created", "user_id", row.ID, "actor_id", actor.ID)
	return FromDataModel(row), nil
}

// Update applies a partial update. Only admins may touch role or isActive;
// the username is immutable.
func (s *Service) Update(ctx context.Context, actor *auth.User, id int64, dto UpdateUserDTO) (*User, error) {
	if err := s.policy.CanMutate(actor, id); err != nil {
		return nil, err
	}
	if !s.policy.IsAdmin(actor) && (dto.Role != nil || dto.IsActive != nil) {
		return nil, internal.ErrForbidden
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.DisplayName != nil {
		row.DisplayName = strings.TrimSpace(*dto.DisplayName)
	}
	if dto.Email != nil {
		row.Email = *dto.Email
	}
	if dto.Role != nil {
		row.Role = *dto.Role
	}
	if dto.IsActive != nil {
		row.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(ctx, row); err != nil {
		if dberr.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		s.logger.Error("failed to update user", "error", err, "user_id", id)
		return nil, internal.NewInternalError("failed to update user", err)
	}
	return FromDataModel(row), nil
}

// Delete deactivates the account. Rows are never removed.
func (s *Service) Delete(ctx context.Context, actor *auth.User, id int64) error {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return err
	}
	row, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	row.IsActive = false
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to deactivate user", "error", err, "user_id", id)
		return internal.NewInternalError("failed to delete user", err)
	}
	s.logger.Info("user deactivated", "user_id", id, "actor_id", actor.ID)
	return nil
}

// ResetPassword sets a new password. Users changing their own password must
// prove the current one; admins resetting anyone's password need not.
func (s *Service) ResetPassword(ctx context.Context, actor *auth.User, id int64, dto ResetPasswordDTO) error {
	if err := s.policy.CanMutate(actor, id); err != nil {
		return err
	}
	if err := dto.Validate(); err != nil {
		return err
	}

	row, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if !s.policy.IsAdmin(actor) {
		if dto.CurrentPassword == "" {
			return ErrCurrentPasswordNeeded
		}
		if err := auth.VerifyPassword(row.PasswordHash, dto.CurrentPassword); err != nil {
			return ErrWrongCurrentPassword
		}
	}

	hash, err := auth.HashPassword(dto.NewPassword, s.bcryptCost)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}
	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		s.logger.Error("failed to update password", "error", err, "user_id", id)
		return internal.NewInternalError("failed to reset password", err)
	}

	s.logger.Info("password reset", "user_id", id, "actor_id", actor.ID)
	return nil
}

func (s *Service) UpdatePreferences(ctx context.Context, actor *auth.User, dto PreferencesDTO) (*User, error) {
	if actor == nil {
		return nil, internal.ErrUnauthorized
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.load(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if dto.ThemePreference != nil {
		row.ThemePreference = *dto.ThemePreference
	}
	if dto.SidebarCollapsed != nil {
		row.SidebarCollapsed = *dto.SidebarCollapsed
	}

	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update preferences", "error", err, "user_id", actor.ID)
		return nil, internal.NewInternalError("failed to update preferences", err)
	}
	return FromDataModel(row), nil
}

func (s *Service) load(ctx context.Context, id int64) (*userDatamodel.User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load user", "error", err, "user_id", id)
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if row == nil {
		return nil, ErrUserNotFound
	}
	return row, nil
}
