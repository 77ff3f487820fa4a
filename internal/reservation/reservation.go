package reservation

import (
	"fmt"
	"strings"
	"time"

	reservationDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/reservation"
)

type Status string

const (
	StatusConfirmed Status = "Confirmed"
	StatusCancelled Status = "Cancelled"
)

// ParseStatus accepts the canonical names case-insensitively.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "confirmed":
		return StatusConfirmed, nil
	case "cancelled", "canceled":
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("unknown reservation status %q", raw)
}

type Reservation struct {
	ID              int64     `json:"id"`
	MeetingRoomID   int64     `json:"meetingRoomId"`
	MeetingRoomName string    `json:"meetingRoomName,omitempty"`
	UserID          int64     `json:"userId"`
	UserDisplayName string    `json:"userDisplayName,omitempty"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	Purpose         string    `json:"purpose"`
	AttendeeCount   *int      `json:"attendeeCount,omitempty"`
	Status          Status    `json:"status"`
	CreatedBy       int64     `json:"createdBy"`
	ModifiedBy      *int64    `json:"modifiedBy,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Overlaps reports whether the half-open intervals [s1,e1) and [s2,e2)
// intersect. Intervals that only touch do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return !(!e1.After(s2) || !s1.Before(e2))
}

// ConflictsWith reports whether r blocks a booking of [start,end) in the
// same room. Cancelled reservations never block.
func (r *Reservation) ConflictsWith(start, end time.Time) bool {
	return r.Status == StatusConfirmed && Overlaps(r.StartTime, r.EndTime, start, end)
}

func (r *Reservation) IsCancelled() bool {
	return r.Status == StatusCancelled
}

func ToDataModel(r *Reservation) *reservationDatamodel.Reservation {
	return &reservationDatamodel.Reservation{
		ID:            r.ID,
		MeetingRoomID: r.MeetingRoomID,
		UserID:        r.UserID,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Purpose:       r.Purpose,
		AttendeeCount: r.AttendeeCount,
		Status:        string(r.Status),
		CreatedBy:     r.CreatedBy,
		ModifiedBy:    r.ModifiedBy,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func FromDataModel(r *reservationDatamodel.Reservation) *Reservation {
	status, err := ParseStatus(r.Status)
	if err != nil {
		status = Status(r.Status)
	}
	return &Reservation{
		ID:              r.ID,
		MeetingRoomID:   r.MeetingRoomID,
		MeetingRoomName: r.MeetingRoomName,
		UserID:          r.UserID,
		UserDisplayName: r.UserDisplayName,
		StartTime:       r.StartTime.UTC(),
		EndTime:         r.EndTime.UTC(),
		Purpose:         r.Purpose,
		AttendeeCount:   r.AttendeeCount,
		Status:          status,
		CreatedBy:       r.CreatedBy,
		ModifiedBy:      r.ModifiedBy,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func FromDataModels(rows []*reservationDatamodel.Reservation) []*Reservation {
	out := make([]*Reservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out
}
