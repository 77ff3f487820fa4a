package reservation

import (
	"fmt"
	"time"

	"github.com/frahmantamala/intranet-portal/internal"
	"github.com/frahmantamala/intranet-portal/internal/core/common/validation"
)

const maxPurposeLength = 500

type CreateReservationDTO struct {
	MeetingRoomID int64     `json:"meetingRoomId"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	Purpose       string    `json:"purpose"`
	AttendeeCount *int      `json:"attendeeCount,omitempty"`
}

func (d CreateReservationDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("meetingRoomId", d.MeetingRoomID).Required()
	v.Field("startTime", d.StartTime).Required()
	v.Field("endTime", d.EndTime).Required().Custom(endAfterStart(d.StartTime))
	v.Field("purpose", d.Purpose).MaxLength(maxPurposeLength)
	v.Field("attendeeCount", d.AttendeeCount).MinInt(1)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateReservationDTO is a partial update; the room cannot be changed.
type UpdateReservationDTO struct {
	StartTime     *time.Time `json:"startTime,omitempty"`
	EndTime       *time.Time `json:"endTime,omitempty"`
	Purpose       *string    `json:"purpose,omitempty"`
	AttendeeCount *int       `json:"attendeeCount,omitempty"`
}

func (d UpdateReservationDTO) Validate() error {
	v := validation.NewValidator()
	if d.Purpose != nil {
		v.Field("purpose", d.Purpose).MaxLength(maxPurposeLength)
	}
	v.Field("attendeeCount", d.AttendeeCount).MinInt(1)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type CheckAvailabilityDTO struct {
	RoomID               int64     `json:"roomId"`
	StartTime            time.Time `json:"startTime"`
	EndTime              time.Time `json:"endTime"`
	ExcludeReservationID *int64    `json:"excludeReservationId,omitempty"`
}

func (d CheckAvailabilityDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("roomId", d.RoomID).Required()
	v.Field("startTime", d.StartTime).Required()
	v.Field("endTime", d.EndTime).Required().Custom(endAfterStart(d.StartTime))
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func endAfterStart(start time.Time) func(interface{}) *internal.AppError {
	return func(value interface{}) *internal.AppError {
		end, ok := value.(time.Time)
		if !ok || start.IsZero() || end.After(start) {
			return nil
		}
		return internal.NewValidationFieldError("endTime", "endTime must be after startTime", internal.ErrCodeInvalidDateRange)
	}
}

type ListFilter struct {
	RoomID    *int64
	UserID    *int64
	Status    *Status
	StartDate *time.Time
	EndDate   *time.Time
}

type AvailabilityResponse struct {
	Available bool           `json:"available"`
	Conflicts []*Reservation `json:"conflicts"`
}

type ConflictSummary struct {
	ID        int64     `json:"id"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// ConflictDetails is attached to RESERVATION_CONFLICT errors.
type ConflictDetails struct {
	ConflictingReservationID int64             `json:"conflictingReservationId,omitempty"`
	RoomID                   int64             `json:"roomId"`
	TimeSlot                 string            `json:"timeSlot"`
	Conflicts                []ConflictSummary `json:"conflicts,omitempty"`
}

func timeSlot(start, end time.Time) string {
	return fmt.Sprintf("%s - %s", start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
}

type ScheduleResponse struct {
	RoomID       int64          `json:"roomId"`
	RoomName     string         `json:"roomName"`
	From         time.Time      `json:"from"`
	To           time.Time      `json:"to"`
	Reservations []*Reservation `json:"reservations"`
}
