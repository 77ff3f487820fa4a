package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/intranet-portal/internal"
	"github.com/frahmantamala/intranet-portal/internal/transport"
	"github.com/frahmantamala/intranet-portal/pkg/logger"
)

const refreshCookiePath = "/api/v1/auth"

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (*Session, error)
	Refresh(ctx context.Context, token string) (*Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, accessToken string) (*User, error)
	CurrentUser(ctx context.Context, userID int64) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service       ServiceAPI
	secureCookies bool
	now           func() time.Time
}

func NewHandler(svc ServiceAPI, secureCookies bool, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler:   transport.NewBaseHandler(lg),
		Service:       svc,
		secureCookies: secureCookies,
		now:           time.Now,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	session, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.setRefreshCookie(w, session.RefreshToken, session.RefreshExpiresAt)
	h.WriteJSON(w, http.StatusOK, session.ToResponse(h.now()))
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		h.WriteAppError(w, internal.ErrInvalidToken)
		return
	}

	session, err := h.Service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.StatusCode == http.StatusUnauthorized {
			h.clearRefreshCookie(w)
		}
		h.HandleServiceError(w, err)
		return
	}

	h.setRefreshCookie(w, session.RefreshToken, session.RefreshExpiresAt)
	h.WriteJSON(w, http.StatusOK, session.ToResponse(h.now()))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var token string
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		token = cookie.Value
	}

	if err := h.Service.Logout(r.Context(), token); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.clearRefreshCookie(w)
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrUnauthorized)
		return
	}

	u, err := h.Service.CurrentUser(r.Context(), caller.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

// AuthMiddleware resolves the bearer token to an active user and stores it
// on the request context. Requests without a valid token get a 401.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteAppError(w, internal.ErrUnauthorized)
			return
		}

		u, err := h.Service.Authenticate(r.Context(), token)
		if err != nil {
			h.Logger.Debug("auth middleware: token rejected", "error", err)
			h.HandleServiceError(w, err)
			return
		}

		ctx := ContextWithUser(r.Context(), u)
		ctx = internal.ContextWithIdentity(ctx, u.ID, u.Role)
		ctx = logger.With(ctx, "user_id", u.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    token,
		Path:     refreshCookiePath,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
