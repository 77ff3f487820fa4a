package pagination

import (
	"net/http"
	"strconv"

	errors "github.com/frahmantamala/intranet-portal/internal"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Params struct {
	Page     int
	PageSize int
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func (p Params) Limit() int {
	return p.PageSize
}

type Meta struct {
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
}

// Page is the list envelope returned by every paginated endpoint.
type Page[T any] struct {
	Data       []T  `json:"data"`
	Pagination Meta `json:"pagination"`
}

func New(page, pageSize int) (Params, error) {
	if page < 1 || pageSize < 1 || pageSize > MaxPageSize {
		return Params{}, errors.ErrInvalidParams
	}
	return Params{Page: page, PageSize: pageSize}, nil
}

// FromRequest reads page and pageSize from the query string, falling back to
// defaults when absent. Present but malformed or out of range values fail.
func FromRequest(r *http.Request) (Params, error) {
	q := r.URL.Query()
	page, err := intParam(q.Get("page"), DefaultPage)
	if err != nil {
		return Params{}, errors.ErrInvalidParams
	}
	pageSize, err := intParam(q.Get("pageSize"), DefaultPageSize)
	if err != nil {
		return Params{}, errors.ErrInvalidParams
	}
	return New(page, pageSize)
}

func NewPage[T any](items []T, params Params, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if params.PageSize > 0 {
		totalPages = int((total + int64(params.PageSize) - 1) / int64(params.PageSize))
	}
	return Page[T]{
		Data: items,
		Pagination: Meta{
			CurrentPage: params.Page,
			PageSize:    params.PageSize,
			TotalItems:  total,
			TotalPages:  totalPages,
		},
	}
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
