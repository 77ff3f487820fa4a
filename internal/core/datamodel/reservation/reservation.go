package reservation

import "time"

type Reservation struct {
	ID            int64     `gorm:"primaryKey"`
	MeetingRoomID int64     `gorm:"column:meeting_room_id;index:idx_reservations_room_time;not null"`
	UserID        int64     `gorm:"column:user_id;index;not null"`
	StartTime     time.Time `gorm:"column:start_time;index:idx_reservations_room_time;not null"`
	EndTime       time.Time `gorm:"column:end_time;not null"`
	Purpose       string    `gorm:"column:purpose;size:500"`
	AttendeeCount *int      `gorm:"column:attendee_count"`
	Status        string    `gorm:"column:status;size:20;not null;default:Confirmed"`
	CreatedBy     int64     `gorm:"column:created_by;not null"`
	ModifiedBy    *int64    `gorm:"column:modified_by"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`

	MeetingRoomName string `gorm:"->;column:meeting_room_name;-:migration"`
	UserDisplayName string `gorm:"->;column:user_display_name;-:migration"`
}

func (Reservation) TableName() string {
	return "reservations"
}
