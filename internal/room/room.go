package room

import (
	"encoding/json"
	"time"

	roomDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/room"
)

type Room struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	Location  string    `json:"location"`
	Amenities []string  `json:"amenities"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Accepts reports whether a booking for attendees people fits the room.
// A nil count always fits.
func (r *Room) Accepts(attendees *int) bool {
	return attendees == nil || *attendees <= r.Capacity
}

func (r *Room) Activate() {
	r.IsActive = true
	r.UpdatedAt = time.Now()
}

func (r *Room) Deactivate() {
	r.IsActive = false
	r.UpdatedAt = time.Now()
}

func NewRoom(name string, capacity int, location string, amenities []string) *Room {
	now := time.Now()
	if amenities == nil {
		amenities = []string{}
	}
	return &Room{
		Name:      name,
		Capacity:  capacity,
		Location:  location,
		Amenities: amenities,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func ToDataModel(r *Room) *roomDatamodel.MeetingRoom {
	return &roomDatamodel.MeetingRoom{
		ID:        r.ID,
		Name:      r.Name,
		Capacity:  r.Capacity,
		Location:  r.Location,
		Amenities: encodeAmenities(r.Amenities),
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func FromDataModel(r *roomDatamodel.MeetingRoom) *Room {
	return &Room{
		ID:        r.ID,
		Name:      r.Name,
		Capacity:  r.Capacity,
		Location:  r.Location,
		Amenities: decodeAmenities(r.Amenities),
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Amenities are stored as a JSON array in a text column.
func encodeAmenities(amenities []string) string {
	if len(amenities) == 0 {
		return "[]"
	}
	b, err := json.Marshal(amenities)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeAmenities(raw string) []string {
	amenities := []string{}
	if raw == "" {
		return amenities
	}
	if err := json.Unmarshal([]byte(raw), &amenities); err != nil {
		return []string{}
	}
	return amenities
}
