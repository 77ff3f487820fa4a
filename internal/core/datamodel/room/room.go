package room

import "time"

type MeetingRoom struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;uniqueIndex;size:100;not null"`
	Capacity  int       `gorm:"column:capacity;not null"`
	Location  string    `gorm:"column:location;size:200"`
	Amenities string    `gorm:"column:amenities;type:text"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (MeetingRoom) TableName() string {
	return "meeting_rooms"
}
