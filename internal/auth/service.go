package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/intranet-portal/internal"
	authDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/auth"
	userDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/user"
	"github.com/frahmantamala/intranet-portal/internal/core/events"
)

// ErrTokenNotActive is returned by RotateRefreshToken when the old token was
// revoked between the read and the rotation.
var ErrTokenNotActive = errors.New("refresh token is no longer active")

type RepositoryAPI interface {
	GetUserByUsername(ctx context.Context, username string) (*userDatamodel.User, error)
	GetUserByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	TouchLastLogin(ctx context.Context, userID int64, at time.Time) error
	IssueRefreshToken(ctx context.Context, token *authDatamodel.RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*authDatamodel.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldToken string, next *authDatamodel.RefreshToken, at time.Time) error
	RevokeRefreshToken(ctx context.Context, token string, at time.Time) error
}

type Options struct {
	RefreshTokenTTL time.Duration
}

// Service is the main auth service with dependencies
type Service struct {
	repo           RepositoryAPI
	tokenGenerator TokenGenerator
	publisher      events.Publisher
	refreshTTL     time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// NewService creates a new auth service
func NewService(repo RepositoryAPI, tokenGen TokenGenerator, opts Options, publisher events.Publisher, logger *slog.Logger) *Service {
	if opts.RefreshTokenTTL <= 0 {
		opts.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		publisher:      publisher,
		refreshTTL:     opts.RefreshTokenTTL,
		logger:         logger,
		now:            time.Now,
	}
}

// Login validates credentials and opens a new session. Every failure mode
// (unknown user, wrong password, inactive account) yields the same error.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*Session, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetUserByUsername(ctx, dto.Username)
	if err != nil {
		s.logger.Error("failed to load user for login", "error", err)
		return nil, internal.NewInternalError("failed to authenticate", err)
	}
	if u == nil || !u.IsActive {
		s.logger.Warn("login rejected", "username", dto.Username)
		return nil, internal.ErrInvalidCredentials
	}

	if err := VerifyPassword(u.PasswordHash, dto.Password); err != nil {
		s.logger.Warn("login rejected", "username", dto.Username)
		return nil, internal.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.repo.TouchLastLogin(ctx, u.ID, now); err != nil {
		s.logger.Error("failed to stamp last login", "error", err, "user_id", u.ID)
		return nil, internal.NewInternalError("failed to authenticate", err)
	}

	identity := FromDataModel(u)
	refresh, err := s.newRefreshToken(identity.ID, now)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue refresh token", err)
	}
	if err := s.repo.IssueRefreshToken(ctx, refresh); err != nil {
		s.logger.Error("failed to store refresh token", "error", err, "user_id", u.ID)
		return nil, internal.NewInternalError("failed to issue refresh token", err)
	}

	session, err := s.session(identity, refresh)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", u.ID)
	return session, nil
}

// Refresh rotates a refresh token: the presented token is revoked and
// points at its replacement. Presenting an already rotated token is treated
// as reuse and reported on the event bus.
func (s *Service) Refresh(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, internal.ErrInvalidToken
	}

	stored, err := s.repo.GetRefreshToken(ctx, token)
	if err != nil {
		s.logger.Error("failed to load refresh token", "error", err)
		return nil, internal.NewInternalError("failed to refresh token", err)
	}
	if stored == nil {
		return nil, internal.ErrInvalidToken
	}

	now := s.now()
	if stored.RevokedAt != nil {
		if stored.ReplacedByToken != nil {
			s.logger.Warn("rotated refresh token presented again", "user_id", stored.UserID, "token_id", stored.ID)
			event := events.NewDomainEvent(events.EventTypeRefreshTokenReused, stored.ID, stored.UserID, nil)
			if err := s.publisher.Publish(ctx, event); err != nil {
				s.logger.Warn("failed to publish refresh token reuse event", "error", err)
			}
		}
		return nil, internal.ErrInvalidToken
	}
	if !stored.ExpiresAt.After(now) {
		return nil, internal.ErrInvalidToken
	}

	u, err := s.repo.GetUserByID(ctx, stored.UserID)
	if err != nil {
		s.logger.Error("failed to load user for refresh", "error", err, "user_id", stored.UserID)
		return nil, internal.NewInternalError("failed to refresh token", err)
	}
	if u == nil || !u.IsActive {
		return nil, internal.ErrInvalidToken
	}

	identity := FromDataModel(u)
	next, err := s.newRefreshToken(identity.ID, now)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue refresh token", err)
	}
	if err := s.repo.RotateRefreshToken(ctx, token, next, now); err != nil {
		if errors.Is(err, ErrTokenNotActive) {
			return nil, internal.ErrInvalidToken
		}
		s.logger.Error("failed to rotate refresh token", "error", err, "user_id", u.ID)
		return nil, internal.NewInternalError("failed to refresh token", err)
	}

	return s.session(identity, next)
}

// Logout revokes the token. Unknown or already revoked tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repo.RevokeRefreshToken(ctx, token, s.now()); err != nil {
		s.logger.Error("failed to revoke refresh token", "error", err)
		return internal.NewInternalError("failed to logout", err)
	}
	return nil
}

// Authenticate resolves a bearer access token to an active user.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*User, error) {
	claims, err := s.tokenGenerator.ValidateToken(accessToken)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}

	u, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if u == nil || !u.IsActive {
		return nil, internal.ErrInvalidToken
	}
	return FromDataModel(u), nil
}

func (s *Service) CurrentUser(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return nil, internal.NewNotFoundError("User not found", internal.ErrCodeNotFound)
	}
	return FromDataModel(u), nil
}

func (s *Service) newRefreshToken(userID int64, now time.Time) (*authDatamodel.RefreshToken, error) {
	value, err := GenerateRandomToken()
	if err != nil {
		return nil, err
	}
	return &authDatamodel.RefreshToken{
		UserID:    userID,
		Token:     value,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}, nil
}

func (s *Service) session(u *User, refresh *authDatamodel.RefreshToken) (*Session, error) {
	accessToken, expiresAt, err := s.tokenGenerator.GenerateAccessToken(u)
	if err != nil {
		s.logger.Error("failed to generate access token", "error", err, "user_id", u.ID)
		return nil, internal.NewInternalError("failed to issue access token", err)
	}
	return &Session{
		AccessToken:      accessToken,
		AccessExpiresAt:  expiresAt,
		RefreshToken:     refresh.Token,
		RefreshExpiresAt: refresh.ExpiresAt,
		User:             u,
	}, nil
}
