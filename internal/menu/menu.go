package menu

import (
	"sort"
	"strings"
	"time"

	menuDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/menu"
)

type LinkType string

const (
	LinkTypeArticle     LinkType = "Article"
	LinkTypeExternalURL LinkType = "ExternalUrl"
)

const maxURLLength = 500

type MenuItem struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	ParentID     *int64      `json:"parentId,omitempty"`
	DisplayOrder int         `json:"displayOrder"`
	LinkType     LinkType    `json:"linkType"`
	ArticleID    *int64      `json:"articleId,omitempty"`
	ExternalURL  *string     `json:"externalUrl,omitempty"`
	IsVisible    bool        `json:"isVisible"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	Children     []*MenuItem `json:"children"`
}

// ValidateLink enforces that the target matching the link type is set and
// the other one is not.
func (m *MenuItem) ValidateLink() error {
	switch m.LinkType {
	case LinkTypeArticle:
		if m.ArticleID == nil || *m.ArticleID <= 0 {
			return ErrArticleIDRequired
		}
		if m.ExternalURL != nil && strings.TrimSpace(*m.ExternalURL) != "" {
			return ErrExternalURLForbidden
		}
		m.ExternalURL = nil
	case LinkTypeExternalURL:
		if m.ExternalURL == nil || strings.TrimSpace(*m.ExternalURL) == "" {
			return ErrExternalURLRequired
		}
		if m.ArticleID != nil {
			return ErrArticleIDForbidden
		}
		url := strings.TrimSpace(*m.ExternalURL)
		if len([]rune(url)) > maxURLLength {
			return ErrExternalURLTooLong
		}
		m.ExternalURL = &url
	default:
		return ErrInvalidLinkType
	}
	return nil
}

// clearOtherTarget drops the target that does not belong to the current
// link type.
func (m *MenuItem) clearOtherTarget() {
	switch m.LinkType {
	case LinkTypeArticle:
		m.ExternalURL = nil
	case LinkTypeExternalURL:
		m.ArticleID = nil
	}
}

// BuildTree nests items under their parents, ordering every level by
// display order and then id. Hidden items are dropped together with their
// subtrees unless includeHidden is set. Items whose parent is missing are
// dropped as well.
func BuildTree(items []*MenuItem, includeHidden bool) []*MenuItem {
	byParent := make(map[int64][]*MenuItem, len(items))
	var roots []*MenuItem
	for _, item := range items {
		if !includeHidden && !item.IsVisible {
			continue
		}
		item.Children = []*MenuItem{}
		if item.ParentID == nil {
			roots = append(roots, item)
			continue
		}
		byParent[*item.ParentID] = append(byParent[*item.ParentID], item)
	}

	var attach func(level []*MenuItem)
	attach = func(level []*MenuItem) {
		sortLevel(level)
		for _, item := range level {
			if children, ok := byParent[item.ID]; ok {
				item.Children = children
				attach(children)
			}
		}
	}
	attach(roots)

	if roots == nil {
		roots = []*MenuItem{}
	}
	return roots
}

func sortLevel(level []*MenuItem) {
	sort.SliceStable(level, func(i, j int) bool {
		if level[i].DisplayOrder != level[j].DisplayOrder {
			return level[i].DisplayOrder < level[j].DisplayOrder
		}
		return level[i].ID < level[j].ID
	})
}

func ToDataModel(m *MenuItem) *menuDatamodel.MenuItem {
	return &menuDatamodel.MenuItem{
		ID:           m.ID,
		Name:         m.Name,
		ParentID:     m.ParentID,
		DisplayOrder: m.DisplayOrder,
		LinkType:     string(m.LinkType),
		ArticleID:    m.ArticleID,
		ExternalURL:  m.ExternalURL,
		IsVisible:    m.IsVisible,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func FromDataModel(row *menuDatamodel.MenuItem) *MenuItem {
	return &MenuItem{
		ID:           row.ID,
		Name:         row.Name,
		ParentID:     row.ParentID,
		DisplayOrder: row.DisplayOrder,
		LinkType:     LinkType(row.LinkType),
		ArticleID:    row.ArticleID,
		ExternalURL:  row.ExternalURL,
		IsVisible:    row.IsVisible,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		Children:     []*MenuItem{},
	}
}
