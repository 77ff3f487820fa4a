package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/intranet-portal/internal/article"
	"github.com/frahmantamala/intranet-portal/internal/core/common/pagination"
	articleDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/article"
	"gorm.io/gorm"
)

const articleColumns = "content_articles.*, authors.display_name AS author_name, publishers.display_name AS publisher_name"

type ArticleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) article.RepositoryAPI {
	return &ArticleRepository{db: db}
}

func (r *ArticleRepository) Create(ctx context.Context, row *articleDatamodel.ContentArticle) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *ArticleRepository) GetByID(ctx context.Context, id int64) (*articleDatamodel.ContentArticle, error) {
	var row articleDatamodel.ContentArticle
	err := r.joined(ctx).Where("content_articles.id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *ArticleRepository) UpdateContent(ctx context.Context, row *articleDatamodel.ContentArticle) error {
	return r.db.WithContext(ctx).
		Model(&articleDatamodel.ContentArticle{ID: row.ID}).
		Updates(map[string]interface{}{
			"title":      row.Title,
			"content":    row.Content,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *ArticleRepository) Transition(ctx context.Context, row *articleDatamodel.ContentArticle, from string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&articleDatamodel.ContentArticle{}).
		Where("id = ? AND publication_status = ?", row.ID, from).
		Updates(map[string]interface{}{
			"publication_status": row.PublicationStatus,
			"available_from":     row.AvailableFrom,
			"available_until":    row.AvailableUntil,
			"published_by":       row.PublishedBy,
			"published_at":       row.PublishedAt,
			"rejection_reason":   row.RejectionReason,
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ArticleRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&articleDatamodel.ContentArticle{}, id).Error
}

func (r *ArticleRepository) List(ctx context.Context, filter article.ListFilter, params pagination.Params) ([]*articleDatamodel.ContentArticle, int64, error) {
	q := r.db.WithContext(ctx).Model(&articleDatamodel.ContentArticle{})
	if filter.Status != nil {
		q = q.Where("content_articles.publication_status = ?", string(*filter.Status))
	}
	if filter.AuthorID != nil {
		q = q.Where("content_articles.author_id = ?", *filter.AuthorID)
	}
	return r.page(q, "content_articles.created_at DESC, content_articles.id DESC", params)
}

func (r *ArticleRepository) ListPublished(ctx context.Context, now time.Time, params pagination.Params) ([]*articleDatamodel.ContentArticle, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&articleDatamodel.ContentArticle{}).
		Where("content_articles.publication_status = ?", string(article.StatusPublished)).
		Where("content_articles.available_from <= ?", now).
		Where("(content_articles.available_until IS NULL OR content_articles.available_until >= ?)", now)
	return r.page(q, "content_articles.published_at DESC, content_articles.id DESC", params)
}

func (r *ArticleRepository) IncrementViewCount(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&articleDatamodel.ContentArticle{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}

func (r *ArticleRepository) page(q *gorm.DB, order string, params pagination.Params) ([]*articleDatamodel.ContentArticle, int64, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*articleDatamodel.ContentArticle
	err := withAuthorJoins(q).
		Order(order).
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *ArticleRepository) joined(ctx context.Context) *gorm.DB {
	return withAuthorJoins(r.db.WithContext(ctx).Model(&articleDatamodel.ContentArticle{}))
}

func withAuthorJoins(q *gorm.DB) *gorm.DB {
	return q.Select(articleColumns).
		Joins("LEFT JOIN users AS authors ON authors.id = content_articles.author_id").
		Joins("LEFT JOIN users AS publishers ON publishers.id = content_articles.published_by")
}
