package menu

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frahmantamala/intranet-portal/internal"
	"github.com/frahmantamala/intranet-portal/internal/auth"
	menuDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/menu"
)

type RepositoryAPI interface {
	ListAll(ctx context.Context) ([]*menuDatamodel.MenuItem, error)
	GetByID(ctx context.Context, id int64) (*menuDatamodel.MenuItem, error)
	Create(ctx context.Context, row *menuDatamodel.MenuItem) error
	Update(ctx context.Context, row *menuDatamodel.MenuItem) error
	// DeleteSubtree removes the item and all of its descendants and returns
	// how many rows went away.
	DeleteSubtree(ctx context.Context, id int64) (int64, error)
	// Reorder applies every display order in one transaction. Unknown ids
	// are skipped; the count of updated rows is returned.
	Reorder(ctx context.Context, items []ReorderItem) (int64, error)
	ArticleExists(ctx context.Context, id int64) (bool, error)
}

var (
	ErrMenuNotFound         = internal.NewNotFoundError("Menu item not found", internal.ErrCodeNotFound)
	ErrArticleIDRequired    = internal.NewValidationFieldError("articleId", "articleId is required for Article links", internal.ErrCodeValidationFailed)
	ErrExternalURLRequired  = internal.NewValidationFieldError("externalUrl", "externalUrl is required for ExternalUrl links", internal.ErrCodeValidationFailed)
	ErrExternalURLForbidden = internal.NewValidationFieldError("externalUrl", "externalUrl is not allowed for Article links", internal.ErrCodeValidationFailed)
	ErrArticleIDForbidden   = internal.NewValidationFieldError("articleId", "articleId is not allowed for ExternalUrl links", internal.ErrCodeValidationFailed)
	ErrExternalURLTooLong   = internal.NewValidationFieldError("externalUrl", "externalUrl must not exceed 500 characters", internal.ErrCodeValidationFailed)
	ErrInvalidLinkType      = internal.NewValidationFieldError("linkType", "linkType must be one of: Article, ExternalUrl", internal.ErrCodeValidationFailed)
	ErrArticleNotFound      = internal.NewValidationFieldError("articleId", "articleId does not reference an existing article", internal.ErrCodeValidationFailed)
	ErrParentNotFound       = internal.NewValidationFieldError("parentId", "parentId does not reference an existing menu item", internal.ErrCodeValidationFailed)
	ErrParentCycle          = internal.NewValidationFieldError("parentId", "a menu item cannot be its own parent or descendant", internal.ErrCodeValidationFailed)
	ErrEmptyReorder         = internal.NewValidationError("reorder list must not be empty", internal.ErrCodeValidationFailed)
)

type Service struct {
	repo   RepositoryAPI
	policy *auth.Policy
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, policy *auth.Policy, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		policy: policy,
		logger: logger,
	}
}

// Tree loads every item with one query and nests them in memory. Hidden
// items are only included for admins that ask for them.
func (s *Service) Tree(ctx context.Context, actor *auth.User, includeHidden bool) ([]*MenuItem, error) {
	if includeHidden && !s.policy.IsAdmin(actor) {
		includeHidden = false
	}

	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to load menu", "error", err)
		return nil, internal.NewInternalError("failed to load menu", err)
	}

	items := make([]*MenuItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, FromDataModel(row))
	}
	return BuildTree(items, includeHidden), nil
}

func (s *Service) Get(ctx context.Context, actor *auth.User, id int64) (*MenuItem, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.IsVisible && !s.policy.IsAdmin(actor) {
		return nil, ErrMenuNotFound
	}
	return item, nil
}

func (s *Service) Create(ctx context.Context, actor *auth.User, dto CreateMenuDTO) (*MenuItem, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	item := &MenuItem{
		Name:         strings.TrimSpace(dto.Name),
		ParentID:     dto.ParentID,
		DisplayOrder: dto.DisplayOrder,
		LinkType:     LinkType(dto.LinkType),
		ArticleID:    dto.ArticleID,
		ExternalURL:  dto.ExternalURL,
		IsVisible:    true,
	}
	if dto.IsVisible != nil {
		item.IsVisible = *dto.IsVisible
	}
	if err := s.checkItem(ctx, item); err != nil {
		return nil, err
	}

	row := ToDataModel(item)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create menu item", "error", err)
		return nil, internal.NewInternalError("failed to create menu item", err)
	}

	s.logger.Info("menu item created", "menu_id", row.ID, "parent_id", row.ParentID)
	return s.load(ctx, row.ID)
}

func (s *Service) Update(ctx context.Context, actor *auth.User, id int64, dto UpdateMenuDTO) (*MenuItem, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		item.Name = strings.TrimSpace(*dto.Name)
	}
	if dto.ParentID != nil {
		if *dto.ParentID == 0 {
			item.ParentID = nil
		} else {
			parentID := *dto.ParentID
			item.ParentID = &parentID
		}
	}
	if dto.DisplayOrder != nil {
		item.DisplayOrder = *dto.DisplayOrder
	}
	if dto.LinkType != nil && LinkType(*dto.LinkType) != item.LinkType {
		item.LinkType = LinkType(*dto.LinkType)
		item.clearOtherTarget()
	}
	if dto.ArticleID != nil {
		item.ArticleID = dto.ArticleID
	}
	if dto.ExternalURL != nil {
		item.ExternalURL = dto.ExternalURL
	}
	if dto.IsVisible != nil {
		item.IsVisible = *dto.IsVisible
	}

	if err := s.checkItem(ctx, item); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, ToDataModel(item)); err != nil {
		s.logger.Error("failed to update menu item", "error", err, "menu_id", id)
		return nil, internal.NewInternalError("failed to update menu item", err)
	}
	return s.load(ctx, id)
}

// Delete removes the item and its whole subtree.
func (s *Service) Delete(ctx context.Context, actor *auth.User, id int64) error {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	removed, err := s.repo.DeleteSubtree(ctx, id)
	if err != nil {
		s.logger.Error("failed to delete menu item", "error", err, "menu_id", id)
		return internal.NewInternalError("failed to delete menu item", err)
	}
	s.logger.Info("menu item deleted", "menu_id", id, "removed", removed)
	return nil
}

func (s *Service) Reorder(ctx context.Context, actor *auth.User, items []ReorderItem) (*ReorderResponse, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyReorder
	}
	for _, it := range items {
		if it.DisplayOrder < 0 {
			return nil, internal.NewValidationFieldError("displayOrder", "displayOrder must be at least 0", internal.ErrCodeValidationFailed)
		}
	}

	updated, err := s.repo.Reorder(ctx, items)
	if err != nil {
		s.logger.Error("failed to reorder menu", "error", err)
		return nil, internal.NewInternalError("failed to reorder menu", err)
	}
	return &ReorderResponse{Updated: updated}, nil
}

// checkItem validates the effective link target and parent of item after
// any partial update has been applied.
func (s *Service) checkItem(ctx context.Context, item *MenuItem) error {
	if err := item.ValidateLink(); err != nil {
		return err
	}

	if item.LinkType == LinkTypeArticle {
		ok, err := s.repo.ArticleExists(ctx, *item.ArticleID)
		if err != nil {
			return internal.NewInternalError("failed to check article", err)
		}
		if !ok {
			return ErrArticleNotFound
		}
	}

	if item.ParentID == nil {
		return nil
	}
	if item.ID != 0 && *item.ParentID == item.ID {
		return ErrParentCycle
	}
	parent, err := s.repo.GetByID(ctx, *item.ParentID)
	if err != nil {
		return internal.NewInternalError("failed to check parent", err)
	}
	if parent == nil {
		return ErrParentNotFound
	}
	if item.ID != 0 {
		return s.ensureNotDescendant(ctx, item.ID, *item.ParentID)
	}
	return nil
}

// ensureNotDescendant walks up from parentID and fails if it reaches id.
func (s *Service) ensureNotDescendant(ctx context.Context, id, parentID int64) error {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return internal.NewInternalError("failed to check parent", err)
	}
	parents := make(map[int64]*int64, len(rows))
	for _, row := range rows {
		parents[row.ID] = row.ParentID
	}

	seen := map[int64]bool{}
	for cur := &parentID; cur != nil && !seen[*cur]; cur = parents[*cur] {
		if *cur == id {
			return ErrParentCycle
		}
		seen[*cur] = true
	}
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (*MenuItem, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get menu item", "error", err, "menu_id", id)
		return nil, internal.NewInternalError("failed to get menu item", err)
	}
	if row == nil {
		return nil, ErrMenuNotFound
	}
	return FromDataModel(row), nil
}
