package file

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/intranet-portal/internal"
	"github.com/frahmantamala/intranet-portal/internal/auth"
	"github.com/frahmantamala/intranet-portal/internal/core/common/pagination"
	"github.com/frahmantamala/intranet-portal/internal/transport"
	"github.com/spf13/afero"
)

// multipartMemory is how much of a multipart body is kept in memory before
// parts spill to temporary files.
const multipartMemory = 32 << 20

type ServiceAPI interface {
	Upload(ctx context.Context, actor *auth.User, dto UploadFileDTO, content io.Reader) (*File, error)
	Get(ctx context.Context, id int64) (*File, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[*File], error)
	Update(ctx context.Context, actor *auth.User, id int64, dto UpdateFileDTO) (*File, error)
	Delete(ctx context.Context, actor *auth.User, id int64) error
	Download(ctx context.Context, id int64) (*File, afero.File, error)
	Categories(ctx context.Context) ([]string, error)
	MaxBytes() int64
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

func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())
	limit := h.Service.MaxBytes()

	// Leave room for the multipart framing and the text fields.
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.HandleServiceError(w, tooLarge(limit, r.ContentLength))
			return
		}
		h.HandleServiceError(w, ErrNoFile.WithCause(err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	part, header, err := r.FormFile("file")
	if err != nil {
		h.HandleServiceError(w, ErrNoFile)
		return
	}
	defer part.Close()

	dto := UploadFileDTO{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Description: formValue(r, "description"),
		Category:    formValue(r, "category"),
	}

	f, err := h.Service.Upload(r.Context(), actor, dto, part)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, f)
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.FromRequest(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	q := r.URL.Query()
	filter := ListFilter{
		Category: queryValue(q.Get("category")),
		FileType: queryValue(q.Get("fileType")),
	}
	if raw := q.Get("uploadedBy"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.WriteAppError(w, internal.NewValidationError("invalid uploadedBy", internal.ErrCodeInvalidParams))
			return
		}
		filter.UploadedBy = &id
	}

	page, err := h.Service.List(r.Context(), filter, params)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	f, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateFileDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	f, err := h.Service.Update(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
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

// DownloadFile streams the stored content. http.ServeContent handles range
// and conditional requests.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	f, content, err := h.Service.Download(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	defer content.Close()

	modTime := f.UpdatedAt
	if info, err := content.Stat(); err == nil {
		modTime = info.ModTime()
	}

	w.Header().Set("Content-Type", f.MimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.OriginalFileName}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, f.OriginalFileName, modTime.In(time.UTC), content)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.Categories(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, categories)
}

func formValue(r *http.Request, key string) *string {
	return queryValue(r.FormValue(key))
}

func queryValue(raw string) *string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	return &v
}
