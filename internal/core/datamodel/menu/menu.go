package menu

import "time"

type MenuItem struct {
	ID           int64     `gorm:"primaryKey"`
	Name         string    `gorm:"column:name;size:100;not null"`
	ParentID     *int64    `gorm:"column:parent_id;index"`
	DisplayOrder int       `gorm:"column:display_order;not null;default:0"`
	LinkType     string    `gorm:"column:link_type;size:20;not null"`
	ArticleID    *int64    `gorm:"column:article_id"`
	ExternalURL  *string   `gorm:"column:external_url;size:500"`
	IsVisible    bool      `gorm:"column:is_visible;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (MenuItem) TableName() string {
	return "menu_items"
}
