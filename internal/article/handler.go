package article

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/intranet-portal/internal"
	"github.com/frahmantamala/intranet-portal/internal/auth"
	"github.com/frahmantamala/intranet-portal/internal/core/common/pagination"
	"github.com/frahmantamala/intranet-portal/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, actor *auth.User, filter ListFilter, params pagination.Params) (pagination.Page[*Article], error)
	ListPublished(ctx context.Context, params pagination.Params) (pagination.Page[*Article], error)
	Get(ctx context.Context, actor *auth.User, id int64) (*Article, error)
	Create(ctx context.Context, actor *auth.User, dto CreateArticleDTO) (*Article, error)
	Update(ctx context.Context, actor *auth.User, id int64, dto UpdateArticleDTO) (*Article, error)
	Delete(ctx context.Context, actor *auth.User, id int64) error
	Submit(ctx context.Context, actor *auth.User, id int64) (*Article, error)
	Approve(ctx context.Context, actor *auth.User, id int64, dto ApproveArticleDTO) (*Article, error)
	Reject(ctx context.Context, actor *auth.User, id int64, dto RejectArticleDTO) (*Article, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())
	params, err := pagination.FromRequest(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var filter ListFilter
	q := r.URL.Query()
	if raw := q.Get("status"); raw != "" {
		status, err := ParseStatus(raw)
		if err != nil {
			h.WriteAppError(w, internal.NewValidationError("invalid status", internal.ErrCodeInvalidParams))
			return
		}
		filter.Status = &status
	}
	if raw := q.Get("authorId"); raw != "" {
		authorID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || authorID <= 0 {
			h.WriteAppError(w, internal.NewValidationError("invalid authorId", internal.ErrCodeInvalidParams))
			return
		}
		filter.AuthorID = &authorID
	}

	page, err := h.Service.List(r.Context(), actor, filter, params)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) ListPublished(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.FromRequest(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	page, err := h.Service.ListPublished(r.Context(), params)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	a, err := h.Service.Get(r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	var dto CreateArticleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	a, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateArticleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	a, err := h.Service.Update(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.Delete(r.Context(), actor, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SubmitArticle(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	a, err := h.Service.Submit(r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) ApproveArticle(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto ApproveArticleDTO
	if err := h.decodeOptional(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	a, err := h.Service.Approve(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) RejectArticle(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto RejectArticleDTO
	if err := h.decodeOptional(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	a, err := h.Service.Reject(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, a)
}

// decodeOptional decodes the body when one was sent. Approve and reject
// work with an empty body.
func (h *Handler) decodeOptional(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return h.DecodeJSON(r, dst)
}
