package postgres

import (
	"context"
	"errors"

	articleDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/article"
	menuDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/menu"
	"github.com/frahmantamala/intranet-portal/internal/menu"
	"gorm.io/gorm"
)

// deleteSubtreeSQL removes an item and every descendant. The foreign key
// also cascades, but the recursive delete does not depend on it being
// enforced.
const deleteSubtreeSQL = `
WITH RECURSIVE subtree(id) AS (
	SELECT id FROM menu_items WHERE id = ?
	UNION ALL
	SELECT m.id FROM menu_items m JOIN subtree s ON m.parent_id = s.id
)
DELETE FROM menu_items WHERE id IN (SELECT id FROM subtree)`

type MenuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) menu.RepositoryAPI {
	return &MenuRepository{db: db}
}

func (r *MenuRepository) ListAll(ctx context.Context) ([]*menuDatamodel.MenuItem, error) {
	var rows []*menuDatamodel.MenuItem
	err := r.db.WithContext(ctx).Order("display_order ASC, id ASC").Find(&rows).Error
	return rows, err
}

func (r *MenuRepository) GetByID(ctx context.Context, id int64) (*menuDatamodel.MenuItem, error) {
	var row menuDatamodel.MenuItem
	err := r.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts row. gorm writes the column default for a zero bool, so a
// hidden item is flipped back in the same transaction.
func (r *MenuRepository) Create(ctx context.Context, row *menuDatamodel.MenuItem) error {
	visible := row.IsVisible
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		if visible {
			return nil
		}
		row.IsVisible = false
		return tx.Model(&menuDatamodel.MenuItem{ID: row.ID}).UpdateColumn("is_visible", false).Error
	})
}

func (r *MenuRepository) Update(ctx context.Context, row *menuDatamodel.MenuItem) error {
	return r.db.WithContext(ctx).
		Model(&menuDatamodel.MenuItem{ID: row.ID}).
		Select("name", "parent_id", "display_order", "link_type", "article_id", "external_url", "is_visible", "updated_at").
		Updates(row).Error
}

func (r *MenuRepository) DeleteSubtree(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Exec(deleteSubtreeSQL, id)
	return res.RowsAffected, res.Error
}

func (r *MenuRepository) Reorder(ctx context.Context, items []menu.ReorderItem) (int64, error) {
	var updated int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, it := range items {
			res := tx.Model(&menuDatamodel.MenuItem{}).
				Where("id = ?", it.ID).
				Update("display_order", it.DisplayOrder)
			if res.Error != nil {
				return res.Error
			}
			updated += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func (r *MenuRepository) ArticleExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&articleDatamodel.ContentArticle{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
