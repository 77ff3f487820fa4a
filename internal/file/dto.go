package file

import (
	"github.com/frahmantamala/intranet-portal/internal/core/common/validation"
)

const (
	maxDescriptionLength = 500
	maxCategoryLength    = 50
)

// UploadFileDTO describes one multipart upload. The content itself is
// passed separately as a reader.
type UploadFileDTO struct {
	FileName    string
	ContentType string
	Size        int64
	Description *string
	Category    *string
}

func (d UploadFileDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("fileName", d.FileName).MaxLength(255)
	v.Field("description", d.Description).MaxLength(maxDescriptionLength)
	v.Field("category", d.Category).MaxLength(maxCategoryLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateFileDTO struct {
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
}

func (d UpdateFileDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("description", d.Description).MaxLength(maxDescriptionLength)
	v.Field("category", d.Category).MaxLength(maxCategoryLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListFilter struct {
	Category   *string
	FileType   *string
	UploadedBy *int64
}
