package file

import (
	"math"
	"sort"
	"strings"
	"time"

	fileDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/file"
)

// MaxFileSizeBytes is the largest accepted upload (100 MiB).
const MaxFileSizeBytes int64 = 104857600

// allowedTypes maps every accepted extension to the only MIME type accepted
// for it.
var allowedTypes = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"svg":  "image/svg+xml",
	"mp4":  "video/mp4",
	"avi":  "video/x-msvideo",
	"mov":  "video/quicktime",
	"wmv":  "video/x-ms-wmv",
	"zip":  "application/zip",
	"rar":  "application/x-rar-compressed",
	"7z":   "application/x-7z-compressed",
}

// AllowedExtensions returns the accepted extensions in sorted order.
func AllowedExtensions() []string {
	exts := make([]string, 0, len(allowedTypes))
	for ext := range allowedTypes {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ValidateFileType reports whether ext is allowed and mimeType is the MIME
// type registered for it. Both comparisons ignore case.
func ValidateFileType(ext, mimeType string) bool {
	expected, ok := allowedTypes[strings.ToLower(strings.TrimPrefix(ext, "."))]
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(mimeType), expected)
}

type File struct {
	ID               int64     `json:"id"`
	OriginalFileName string    `json:"originalFileName"`
	StoredFileName   string    `json:"storedFileName"`
	MimeType         string    `json:"mimeType"`
	FileExtension    string    `json:"fileExtension"`
	FileSizeBytes    int64     `json:"fileSizeBytes"`
	FileSizeMB       float64   `json:"fileSizeMB"`
	UploadedBy       int64     `json:"uploadedBy"`
	UploaderName     string    `json:"uploaderName,omitempty"`
	Description      *string   `json:"description,omitempty"`
	Category         *string   `json:"category,omitempty"`
	DownloadCount    int64     `json:"downloadCount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// SizeMB converts bytes to mebibytes rounded to two decimals.
func SizeMB(bytes int64) float64 {
	return math.Round(float64(bytes)/(1024*1024)*100) / 100
}

func ToDataModel(f *File) *fileDatamodel.UploadedFile {
	return &fileDatamodel.UploadedFile{
		ID:               f.ID,
		OriginalFileName: f.OriginalFileName,
		StoredFileName:   f.StoredFileName,
		MimeType:         f.MimeType,
		FileExtension:    f.FileExtension,
		FileSizeBytes:    f.FileSizeBytes,
		UploadedBy:       f.UploadedBy,
		Description:      f.Description,
		Category:         f.Category,
		DownloadCount:    f.DownloadCount,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}

func FromDataModel(row *fileDatamodel.UploadedFile) *File {
	return &File{
		ID:               row.ID,
		OriginalFileName: row.OriginalFileName,
		StoredFileName:   row.StoredFileName,
		MimeType:         row.MimeType,
		FileExtension:    row.FileExtension,
		FileSizeBytes:    row.FileSizeBytes,
		FileSizeMB:       SizeMB(row.FileSizeBytes),
		UploadedBy:       row.UploadedBy,
		UploaderName:     row.UploaderName,
		Description:      row.Description,
		Category:         row.Category,
		DownloadCount:    row.DownloadCount,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}
