package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/intranet-portal/internal/core/common/pagination"
	fileDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/file"
	"github.com/frahmantamala/intranet-portal/internal/file"
	"gorm.io/gorm"
)

const fileColumns = "uploaded_files.*, users.display_name AS uploader_name"

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) file.RepositoryAPI {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, row *fileDatamodel.UploadedFile) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *FileRepository) GetByID(ctx context.Context, id int64) (*fileDatamodel.UploadedFile, error) {
	var row fileDatamodel.UploadedFile
	err := r.joined(r.db.WithContext(ctx).Model(&fileDatamodel.UploadedFile{})).
		Where("uploaded_files.id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *FileRepository) UpdateMetadata(ctx context.Context, row *fileDatamodel.UploadedFile) error {
	return r.db.WithContext(ctx).
		Model(&fileDatamodel.UploadedFile{ID: row.ID}).
		Select("description", "category", "updated_at").
		Updates(row).Error
}

func (r *FileRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&fileDatamodel.UploadedFile{}, id).Error
}

func (r *FileRepository) List(ctx context.Context, filter file.ListFilter, params pagination.Params) ([]*fileDatamodel.UploadedFile, int64, error) {
	q := r.db.WithContext(ctx).Model(&fileDatamodel.UploadedFile{})
	if filter.Category != nil {
		q = q.Where("uploaded_files.category = ?", *filter.Category)
	}
	if filter.FileType != nil {
		q = q.Where("uploaded_files.file_extension = ?", *filter.FileType)
	}
	if filter.UploadedBy != nil {
		q = q.Where("uploaded_files.uploaded_by = ?", *filter.UploadedBy)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*fileDatamodel.UploadedFile
	err := r.joined(q).
		Order("uploaded_files.created_at DESC, uploaded_files.id DESC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *FileRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&fileDatamodel.UploadedFile{}).
		Where("category IS NOT NULL AND category <> ''").
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}

func (r *FileRepository) IncrementDownloadCount(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&fileDatamodel.UploadedFile{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1)).Error
}

func (r *FileRepository) joined(q *gorm.DB) *gorm.DB {
	return q.Select(fileColumns).
		Joins("LEFT JOIN users ON users.id = uploaded_files.uploaded_by")
}
