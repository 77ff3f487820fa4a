package auth

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/intranet-portal/internal/auth"
	authDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/auth"
	userDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) TouchLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_login_at", at).Error
}

// IssueRefreshToken stores a new token and revokes every other active token
// of the same user, so a login leaves exactly one live session.
func (r *Repository) IssueRefreshToken(ctx context.Context, token *authDatamodel.RefreshToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&authDatamodel.RefreshToken{}).
			Where("user_id = ? AND revoked_at IS NULL", token.UserID).
			Update("revoked_at", token.CreatedAt).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}

func (r *Repository) GetRefreshToken(ctx context.Context, token string) (*authDatamodel.RefreshToken, error) {
	var rt authDatamodel.RefreshToken
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&rt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// RotateRefreshToken revokes oldToken, links it to next and stores next in a
// single transaction. The conditional update guards against two concurrent
// refreshes of the same token.
func (r *Repository) RotateRefreshToken(ctx context.Context, oldToken string, next *authDatamodel.RefreshToken, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&authDatamodel.RefreshToken{}).
			Where("token = ? AND revoked_at IS NULL", oldToken).
			Updates(map[string]interface{}{
				"revoked_at":        at,
				"replaced_by_token": next.Token,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return auth.ErrTokenNotActive
		}
		return tx.Create(next).Error
	})
}

func (r *Repository) RevokeRefreshToken(ctx context.Context, token string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&authDatamodel.RefreshToken{}).
		Where("token = ? AND revoked_at IS NULL", token).
		Update("revoked_at", at).Error
}
