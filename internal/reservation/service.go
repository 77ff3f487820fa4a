package reservation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/intranet-portal/internal"
	"github.com/frahmantamala/intranet-portal/internal/auth"
	"github.com/frahmantamala/intranet-portal/internal/core/common/pagination"
	reservationDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/reservation"
	roomDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/room"
	"github.com/frahmantamala/intranet-portal/internal/core/dberr"
	"github.com/frahmantamala/intranet-portal/internal/core/events"
)

// TxRepository holds the operations that must run inside one database
// transaction when a reservation is written.
type TxRepository interface {
	// LockRoom loads the room and holds a row lock on it until the
	// transaction ends. It returns nil when the room does not exist.
	LockRoom(ctx context.Context, roomID int64) (*roomDatamodel.MeetingRoom, error)
	GetByID(ctx context.Context, id int64) (*reservationDatamodel.Reservation, error)
	// FindConflicts returns confirmed reservations of the room that overlap
	// [start,end), skipping excludeID when it is non-zero.
	FindConflicts(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]*reservationDatamodel.Reservation, error)
	Create(ctx context.Context, r *reservationDatamodel.Reservation) error
	Update(ctx context.Context, r *reservationDatamodel.Reservation) error
}

type RepositoryAPI interface {
	TxRepository
	WithinTransaction(ctx context.Context, fn func(tx TxRepository) error) error
	GetRoom(ctx context.Context, roomID int64) (*roomDatamodel.MeetingRoom, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]*reservationDatamodel.Reservation, int64, error)
	ListForRoom(ctx context.Context, roomID int64, from, to time.Time) ([]*reservationDatamodel.Reservation, error)
}

var (
	ErrReservationNotFound = internal.NewNotFoundError("Reservation not found", internal.ErrCodeNotFound)
	ErrRoomNotFound        = internal.NewNotFoundError("Meeting room not found", internal.ErrCodeNotFound)
	ErrRoomNotAvailable    = internal.NewConflictError("Meeting room is not available for booking", internal.ErrCodeRoomNotAvailable)
	ErrCapacityExceeded    = internal.NewUnprocessableError("Attendee count exceeds room capacity", internal.ErrCodeCapacityExceeded)
	ErrReservationConflict = internal.NewConflictError("The room is already booked for the requested time", internal.ErrCodeReservationConflict)
	ErrCancelledReadOnly   = internal.NewValidationError("Cancelled reservations cannot be modified", internal.ErrCodeInvalidStateTransition)
	ErrInvalidTimeRange    = internal.NewUnprocessableError("endTime must be after startTime", internal.ErrCodeInvalidDateRange)
)

type Service struct {
	repo      RepositoryAPI
	policy    *auth.Policy
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, policy *auth.Policy, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		policy:    policy,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) List(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[*Reservation], error) {
	if filter.StartDate != nil && filter.EndDate != nil && !filter.EndDate.After(*filter.StartDate) {
		return pagination.Page[*Reservation]{}, ErrInvalidTimeRange
	}

	rows, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		s.logger.Error("failed to list reservations", "error", err)
		return pagination.Page[*Reservation]{}, internal.NewInternalError("failed to list reservations", err)
	}
	return pagination.NewPage(FromDataModels(rows), params, total), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Reservation, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get reservation", "error", err, "reservation_id", id)
		return nil, internal.NewInternalError("failed to get reservation", err)
	}
	if row == nil {
		return nil, ErrReservationNotFound
	}
	return FromDataModel(row), nil
}

// Create books a room for the actor. The room row is locked for the whole
// check-then-insert sequence so two overlapping requests cannot both pass
// the conflict check.
func (s *Service) Create(ctx context.Context, actor *auth.User, dto CreateReservationDTO) (*Reservation, error) {
	if actor == nil {
		return nil, internal.ErrUnauthorized
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	row := &reservationDatamodel.Reservation{
		MeetingRoomID: dto.MeetingRoomID,
		UserID:        actor.ID,
		StartTime:     dto.StartTime.UTC(),
		EndTime:       dto.EndTime.UTC(),
		Purpose:       strings.TrimSpace(dto.Purpose),
		AttendeeCount: dto.AttendeeCount,
		Status:        string(StatusConfirmed),
		CreatedBy:     actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.repo.WithinTransaction(ctx, func(tx TxRepository) error {
		room, err := tx.LockRoom(ctx, row.MeetingRoomID)
		if err != nil {
			return err
		}
		if room == nil {
			return ErrRoomNotFound
		}
		if !room.IsActive {
			return ErrRoomNotAvailable
		}
		if err := checkCapacity(room, row.AttendeeCount); err != nil {
			return err
		}
		if err := s.ensureNoConflicts(ctx, tx, row.MeetingRoomID, row.StartTime, row.EndTime, 0); err != nil {
			return err
		}
		return tx.Create(ctx, row)
	})
	if err != nil {
		return nil, s.mapWriteError(err, row, "failed to create reservation")
	}

	s.logger.Info("reservation created", "reservation_id", row.ID, "room_id", row.MeetingRoomID, "user_id", actor.ID)
	s.publish(ctx, events.EventTypeReservationCreated, row, actor.ID)
	return s.Get(ctx, row.ID)
}

// Update changes the time, purpose or attendee count of a confirmed
// reservation and re-runs the capacity and conflict checks.
func (s *Service) Update(ctx context.Context, actor *auth.User, id int64, dto UpdateReservationDTO) (*Reservation, error) {
	if actor == nil {
		return nil, internal.ErrUnauthorized
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanMutate(actor, current.UserID); err != nil {
		return nil, err
	}

	var row *reservationDatamodel.Reservation
	err = s.repo.WithinTransaction(ctx, func(tx TxRepository) error {
		room, err := tx.LockRoom(ctx, current.MeetingRoomID)
		if err != nil {
			return err
		}
		if room == nil {
			return ErrRoomNotFound
		}

		row, err = tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrReservationNotFound
		}
		if row.Status == string(StatusCancelled) {
			return ErrCancelledReadOnly
		}

		if dto.StartTime != nil {
			row.StartTime = dto.StartTime.UTC()
		}
		if dto.EndTime != nil {
			row.EndTime = dto.EndTime.UTC()
		}
		if !row.EndTime.After(row.StartTime) {
			return ErrInvalidTimeRange
		}
		if dto.Purpose != nil {
			row.Purpose = strings.TrimSpace(*dto.Purpose)
		}
		if dto.AttendeeCount != nil {
			row.AttendeeCount = dto.AttendeeCount
		}
		if err := checkCapacity(room, row.AttendeeCount); err != nil {
			return err
		}
		if err := s.ensureNoConflicts(ctx, tx, row.MeetingRoomID, row.StartTime, row.EndTime, row.ID); err != nil {
			return err
		}

		row.ModifiedBy = &actor.ID
		row.UpdatedAt = s.now().UTC()
		return tx.Update(ctx, row)
	})
	if err != nil {
		return nil, s.mapWriteError(err, row, "failed to update reservation")
	}

	s.logger.Info("reservation updated", "reservation_id", id, "user_id", actor.ID)
	s.publish(ctx, events.EventTypeReservationUpdated, row, actor.ID)
	return s.Get(ctx, id)
}

// Cancel marks the reservation cancelled. Cancelling twice is a no-op.
func (s *Service) Cancel(ctx context.Context, actor *auth.User, id int64) error {
	if actor == nil {
		return internal.ErrUnauthorized
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.CanMutate(actor, current.UserID); err != nil {
		return err
	}
	if current.IsCancelled() {
		return nil
	}

	row := ToDataModel(current)
	row.Status = string(StatusCancelled)
	row.ModifiedBy = &actor.ID
	row.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to cancel reservation", "error", err, "reservation_id", id)
		return internal.NewInternalError("failed to cancel reservation", err)
	}

	s.logger.Info("reservation cancelled", "reservation_id", id, "user_id", actor.ID)
	s.publish(ctx, events.EventTypeReservationCancelled, row, actor.ID)
	return nil
}

// CheckAvailability reports the confirmed reservations that would block the
// requested slot without writing anything.
func (s *Service) CheckAvailability(ctx context.Context, dto CheckAvailabilityDTO) (*AvailabilityResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	room, err := s.repo.GetRoom(ctx, dto.RoomID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load room", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	var exclude int64
	if dto.ExcludeReservationID != nil {
		exclude = *dto.ExcludeReservationID
	}
	rows, err := s.repo.FindConflicts(ctx, dto.RoomID, dto.StartTime.UTC(), dto.EndTime.UTC(), exclude)
	if err != nil {
		s.logger.Error("failed to check availability", "error", err, "room_id", dto.RoomID)
		return nil, internal.NewInternalError("failed to check availability", err)
	}

	conflicts := blocking(rows, dto.StartTime, dto.EndTime)
	return &AvailabilityResponse{
		Available: room.IsActive && len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}

// RoomSchedule lists the confirmed reservations of a room that overlap
// [from,to), ordered by start time.
func (s *Service) RoomSchedule(ctx context.Context, roomID int64, from, to time.Time) (*ScheduleResponse, error) {
	if !to.After(from) {
		return nil, ErrInvalidTimeRange
	}

	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load room", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	rows, err := s.repo.ListForRoom(ctx, roomID, from.UTC(), to.UTC())
	if err != nil {
		s.logger.Error("failed to load room schedule", "error", err, "room_id", roomID)
		return nil, internal.NewInternalError("failed to load room schedule", err)
	}

	return &ScheduleResponse{
		RoomID:       room.ID,
		RoomName:     room.Name,
		From:         from.UTC(),
		To:           to.UTC(),
		Reservations: FromDataModels(rows),
	}, nil
}

func (s *Service) ensureNoConflicts(ctx context.Context, tx TxRepository, roomID int64, start, end time.Time, excludeID int64) error {
	rows, err := tx.FindConflicts(ctx, roomID, start, end, excludeID)
	if err != nil {
		return err
	}
	conflicts := blocking(rows, start, end)
	if len(conflicts) == 0 {
		return nil
	}

	summaries := make([]ConflictSummary, 0, len(conflicts))
	for _, r := range conflicts {
		summaries = append(summaries, ConflictSummary{ID: r.ID, StartTime: r.StartTime.UTC(), EndTime: r.EndTime.UTC()})
	}
	return ErrReservationConflict.WithDetails(ConflictDetails{
		ConflictingReservationID: conflicts[0].ID,
		RoomID:                   roomID,
		TimeSlot:                 timeSlot(start, end),
		Conflicts:                summaries,
	})
}

// blocking keeps the rows that are confirmed and overlap [start,end).
func blocking(rows []*reservationDatamodel.Reservation, start, end time.Time) []*Reservation {
	out := make([]*Reservation, 0, len(rows))
	for _, r := range FromDataModels(rows) {
		if r.ConflictsWith(start, end) {
			out = append(out, r)
		}
	}
	return out
}

func checkCapacity(room *roomDatamodel.MeetingRoom, attendees *int) error {
	if attendees != nil && *attendees > room.Capacity {
		return ErrCapacityExceeded.WithDetails(map[string]int{
			"capacity":      room.Capacity,
			"attendeeCount": *attendees,
		})
	}
	return nil
}

// mapWriteError passes domain errors through and turns an exclusion
// constraint violation into the same conflict error the pre-check returns.
func (s *Service) mapWriteError(err error, row *reservationDatamodel.Reservation, msg string) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	if dberr.IsExclusionViolation(err) && row != nil {
		s.logger.Warn("reservation overlap caught by constraint", "constraint", dberr.ConstraintName(err), "room_id", row.MeetingRoomID)
		return ErrReservationConflict.WithDetails(ConflictDetails{
			RoomID:   row.MeetingRoomID,
			TimeSlot: timeSlot(row.StartTime, row.EndTime),
		})
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	s.logger.Error(msg, "error", err)
	return internal.NewInternalError(msg, err)
}

func (s *Service) publish(ctx context.Context, eventType string, row *reservationDatamodel.Reservation, actorID int64) {
	event := events.NewDomainEvent(eventType, row.ID, actorID, map[string]interface{}{
		"room_id":    row.MeetingRoomID,
		"start_time": row.StartTime,
		"end_time":   row.EndTime,
		"status":     row.Status,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish reservation event", "error", err, "event_type", eventType)
	}
}
