package file

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/frahmantamala/intranet-portal/internal"
	"github.com/frahmantamala/intranet-portal/internal/auth"
	"github.com/frahmantamala/intranet-portal/internal/core/common/pagination"
	fileDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/file"
	"github.com/frahmantamala/intranet-portal/internal/core/events"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

type RepositoryAPI interface {
	Create(ctx context.Context, row *fileDatamodel.UploadedFile) error
	GetByID(ctx context.Context, id int64) (*fileDatamodel.UploadedFile, error)
	UpdateMetadata(ctx context.Context, row *fileDatamodel.UploadedFile) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]*fileDatamodel.UploadedFile, int64, error)
	Categories(ctx context.Context) ([]string, error)
	IncrementDownloadCount(ctx context.Context, id int64) error
}

var (
	ErrFileNotFound    = internal.NewNotFoundError("File not found", internal.ErrCodeNotFound)
	ErrContentMissing  = internal.NewNotFoundError("File content is no longer available", internal.ErrCodeNotFound)
	ErrNoFile          = internal.NewValidationError("No file was uploaded", internal.ErrCodeNoFile)
	ErrFileTooLarge    = internal.NewPayloadTooLargeError("File exceeds the maximum upload size", internal.ErrCodeFileTooLarge)
	ErrInvalidFileType = internal.NewUnsupportedMediaError("File type is not allowed", internal.ErrCodeInvalidFileType)
)

func tooLarge(limit, size int64) error {
	return ErrFileTooLarge.WithDetails(map[string]int64{
		"maxSizeBytes":      limit,
		"uploadedSizeBytes": size,
	})
}

type Service struct {
	repo      RepositoryAPI
	storage   *Storage
	policy    *auth.Policy
	publisher events.Publisher
	logger    *slog.Logger
	maxBytes  int64
}

func NewService(repo RepositoryAPI, storage *Storage, policy *auth.Policy, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		storage:   storage,
		policy:    policy,
		publisher: publisher,
		logger:    logger,
		maxBytes:  MaxFileSizeBytes,
	}
}

// LimitBytes lowers the upload limit. Values outside (0, MaxFileSizeBytes]
// are ignored.
func (s *Service) LimitBytes(n int64) {
	if n > 0 && n <= MaxFileSizeBytes {
		s.maxBytes = n
	}
}

func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Upload validates the declared size and type, streams the content to a
// fresh uuid-named file and records its metadata.
func (s *Service) Upload(ctx context.Context, actor *auth.User, dto UploadFileDTO, content io.Reader) (*File, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if content == nil || dto.Size == 0 || strings.TrimSpace(dto.FileName) == "" {
		return nil, ErrNoFile
	}
	if dto.Size < 0 || dto.Size > s.maxBytes {
		return nil, tooLarge(s.maxBytes, dto.Size)
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(dto.FileName), "."))
	mimeType := mediaType(dto.ContentType)
	if !ValidateFileType(ext, mimeType) {
		return nil, ErrInvalidFileType.WithDetails(map[string][]string{
			"allowedExtensions": AllowedExtensions(),
		})
	}

	stored := uuid.New().String() + "." + ext
	written, err := s.storage.Save(stored, content, s.maxBytes)
	if err != nil {
		if errors.Is(err, errTooLarge) {
			return nil, tooLarge(s.maxBytes, written)
		}
		s.logger.Error("failed to store upload", "error", err, "file_name", dto.FileName)
		return nil, internal.NewInternalError("failed to store file", err)
	}
	if written == 0 {
		_ = s.storage.Remove(stored)
		return nil, ErrNoFile
	}

	row := &fileDatamodel.UploadedFile{
		OriginalFileName: filepath.Base(dto.FileName),
		StoredFileName:   stored,
		MimeType:         allowedTypes[ext],
		FileExtension:    ext,
		FileSizeBytes:    written,
		UploadedBy:       actor.ID,
		Description:      trimmed(dto.Description),
		Category:         trimmed(dto.Category),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		_ = s.storage.Remove(stored)
		s.logger.Error("failed to record upload", "error", err, "stored_name", stored)
		return nil, internal.NewInternalError("failed to save file metadata", err)
	}

	s.logger.Info("file uploaded", "file_id", row.ID, "stored_name", stored, "size", written, "user_id", actor.ID)
	s.publish(ctx, events.EventTypeFileUploaded, row, actor.ID)
	return s.Get(ctx, row.ID)
}

func (s *Service) Get(ctx context.Context, id int64) (*File, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get file", "error", err, "file_id", id)
		return nil, internal.NewInternalError("failed to get file", err)
	}
	if row == nil {
		return nil, ErrFileNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) List(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[*File], error) {
	if filter.FileType != nil {
		ext := strings.ToLower(strings.TrimPrefix(*filter.FileType, "."))
		filter.FileType = &ext
	}

	rows, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		s.logger.Error("failed to list files", "error", err)
		return pagination.Page[*File]{}, internal.NewInternalError("failed to list files", err)
	}

	files := make([]*File, 0, len(rows))
	for _, row := range rows {
		files = append(files, FromDataModel(row))
	}
	return pagination.NewPage(files, params, total), nil
}

func (s *Service) Update(ctx context.Context, actor *auth.User, id int64, dto UpdateFileDTO) (*File, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if dto.Description != nil {
		f.Description = trimmed(dto.Description)
	}
	if dto.Category != nil {
		f.Category = trimmed(dto.Category)
	}

	if err := s.repo.UpdateMetadata(ctx, ToDataModel(f)); err != nil {
		s.logger.Error("failed to update file", "error", err, "file_id", id)
		return nil, internal.NewInternalError("failed to update file", err)
	}
	return s.Get(ctx, id)
}

// Delete removes the metadata row and then the stored content.
func (s *Service) Delete(ctx context.Context, actor *auth.User, id int64) error {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return err
	}
	f, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete file", "error", err, "file_id", id)
		return internal.NewInternalError("failed to delete file", err)
	}
	if err := s.storage.Remove(f.StoredFileName); err != nil {
		s.logger.Warn("failed to remove stored file", "error", err, "stored_name", f.StoredFileName)
	}

	s.logger.Info("file deleted", "file_id", id, "user_id", actor.ID)
	s.publish(ctx, events.EventTypeFileDeleted, ToDataModel(f), actor.ID)
	return nil
}

// Download opens the stored content and counts the download. The caller
// closes the returned file.
func (s *Service) Download(ctx context.Context, id int64) (*File, afero.File, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	content, err := s.storage.Open(f.StoredFileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("stored file missing", "file_id", id, "stored_name", f.StoredFileName)
			return nil, nil, ErrContentMissing
		}
		return nil, nil, internal.NewInternalError("failed to open file", err)
	}

	if err := s.repo.IncrementDownloadCount(ctx, id); err != nil {
		s.logger.Warn("failed to count download", "error", err, "file_id", id)
	} else {
		f.DownloadCount++
	}
	return f, content, nil
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		s.logger.Error("failed to list categories", "error", err)
		return nil, internal.NewInternalError("failed to list categories", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

func (s *Service) publish(ctx context.Context, eventType string, row *fileDatamodel.UploadedFile, actorID int64) {
	event := events.NewDomainEvent(eventType, row.ID, actorID, map[string]interface{}{
		"file_name":  row.OriginalFileName,
		"size_bytes": row.FileSizeBytes,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish file event", "error", err, "event_type", eventType)
	}
}

// mediaType strips parameters such as charset from a Content-Type value.
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.TrimSpace(contentType)
	}
	return mt
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
