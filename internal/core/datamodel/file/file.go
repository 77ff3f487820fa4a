package file

import "time"

type UploadedFile struct {
	ID               int64     `gorm:"primaryKey"`
	OriginalFileName string    `gorm:"column:original_file_name;size:255;not null"`
	StoredFileName   string    `gorm:"column:stored_file_name;uniqueIndex;size:100;not null"`
	MimeType         string    `gorm:"column:mime_type;size:100;not null"`
	FileExtension    string    `gorm:"column:file_extension;size:10;not null"`
	FileSizeBytes    int64     `gorm:"column:file_size_bytes;not null"`
	UploadedBy       int64     `gorm:"column:uploaded_by;index;not null"`
	Description      *string   `gorm:"column:description;size:500"`
	Category         *string   `gorm:"column:category;size:50;index"`
	DownloadCount    int64     `gorm:"column:download_count;not null;default:0"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`

	UploaderName string `gorm:"->;column:uploader_name;-:migration"`
}

func (UploadedFile) TableName() string {
	return "uploaded_files"
}
