package article

import (
	"time"

	"github.com/frahmantamala/intranet-portal/internal/core/common/validation"
)

const (
	maxTitleLength  = 255
	maxReasonLength = 500
)

type CreateArticleDTO struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (d CreateArticleDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("title", d.Title).Required().MaxLength(maxTitleLength)
	v.Field("content", d.Content).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateArticleDTO struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

func (d UpdateArticleDTO) Validate() error {
	v := validation.NewValidator()
	if d.Title != nil {
		v.Field("title", d.Title).Required().MaxLength(maxTitleLength)
	}
	if d.Content != nil {
		v.Field("content", d.Content).Required()
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// ApproveArticleDTO carries the availability window. A zero AvailableFrom
// means the article is available immediately.
type ApproveArticleDTO struct {
	AvailableFrom  time.Time  `json:"availableFrom"`
	AvailableUntil *time.Time `json:"availableUntil,omitempty"`
}

type RejectArticleDTO struct {
	Reason *string `json:"reason,omitempty"`
}

func (d RejectArticleDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("reason", d.Reason).MaxLength(maxReasonLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListFilter struct {
	Status   *Status
	AuthorID *int64
}
