package article

import "time"

type ContentArticle struct {
	ID                int64      `gorm:"primaryKey"`
	Title             string     `gorm:"column:title;size:255;not null"`
	Content           string     `gorm:"column:content;type:text;not null"`
	AuthorID          int64      `gorm:"column:author_id;index;not null"`
	PublicationStatus string     `gorm:"column:publication_status;size:20;index;not null;default:Draft"`
	AvailableFrom     *time.Time `gorm:"column:available_from"`
	AvailableUntil    *time.Time `gorm:"column:available_until"`
	ViewCount         int64      `gorm:"column:view_count;not null;default:0"`
	PublishedBy       *int64     `gorm:"column:published_by"`
	PublishedAt       *time.Time `gorm:"column:published_at"`
	RejectionReason   *string    `gorm:"column:rejection_reason;size:500"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`

	AuthorName    string  `gorm:"->;column:author_name;-:migration"`
	PublisherName *string `gorm:"->;column:publisher_name;-:migration"`
}

func (ContentArticle) TableName() string {
	return "content_articles"
}
