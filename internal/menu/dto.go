package menu

import (
	"github.com/frahmantamala/intranet-portal/internal/core/common/validation"
)

const maxNameLength = 100

type CreateMenuDTO struct {
	Name         string  `json:"name"`
	ParentID     *int64  `json:"parentId,omitempty"`
	DisplayOrder int     `json:"displayOrder"`
	LinkType     string  `json:"linkType"`
	ArticleID    *int64  `json:"articleId,omitempty"`
	ExternalURL  *string `json:"externalUrl,omitempty"`
	IsVisible    *bool   `json:"isVisible,omitempty"`
}

func (d CreateMenuDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(maxNameLength)
	v.Field("linkType", d.LinkType).Required().OneOf(string(LinkTypeArticle), string(LinkTypeExternalURL))
	v.Field("displayOrder", d.DisplayOrder).MinInt(0)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateMenuDTO is a partial update. A ParentID of 0 moves the item to the
// root level.
type UpdateMenuDTO struct {
	Name         *string `json:"name,omitempty"`
	ParentID     *int64  `json:"parentId,omitempty"`
	DisplayOrder *int    `json:"displayOrder,omitempty"`
	LinkType     *string `json:"linkType,omitempty"`
	ArticleID    *int64  `json:"articleId,omitempty"`
	ExternalURL  *string `json:"externalUrl,omitempty"`
	IsVisible    *bool   `json:"isVisible,omitempty"`
}

func (d UpdateMenuDTO) Validate() error {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", d.Name).Required().MaxLength(maxNameLength)
	}
	if d.LinkType != nil {
		v.Field("linkType", d.LinkType).Required().OneOf(string(LinkTypeArticle), string(LinkTypeExternalURL))
	}
	v.Field("displayOrder", d.DisplayOrder).MinInt(0)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ReorderItem struct {
	ID           int64 `json:"id"`
	DisplayOrder int   `json:"displayOrder"`
}

type ReorderResponse struct {
	Updated int64 `json:"updated"`
}
