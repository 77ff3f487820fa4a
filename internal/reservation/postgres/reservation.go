package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/intranet-portal/internal/core/common/pagination"
	reservationDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/reservation"
	roomDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/room"
	"github.com/frahmantamala/intranet-portal/internal/reservation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const reservationColumns = "reservations.*, meeting_rooms.name AS meeting_room_name, users.display_name AS user_display_name"

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) reservation.RepositoryAPI {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) WithinTransaction(ctx context.Context, fn func(tx reservation.TxRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ReservationRepository{db: tx})
	})
}

// LockRoom issues SELECT ... FOR UPDATE on the room row. Drivers without
// row locks ignore the clause.
func (r *ReservationRepository) LockRoom(ctx context.Context, roomID int64) (*roomDatamodel.MeetingRoom, error) {
	var room roomDatamodel.MeetingRoom
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&room, roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *ReservationRepository) GetRoom(ctx context.Context, roomID int64) (*roomDatamodel.MeetingRoom, error) {
	var room roomDatamodel.MeetingRoom
	err := r.db.WithContext(ctx).First(&room, roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*reservationDatamodel.Reservation, error) {
	var row reservationDatamodel.Reservation
	err := r.joined(ctx).Where("reservations.id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *ReservationRepository) FindConflicts(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]*reservationDatamodel.Reservation, error) {
	q := r.joined(ctx).
		Where("reservations.meeting_room_id = ?", roomID).
		Where("reservations.status = ?", string(reservation.StatusConfirmed)).
		Where("reservations.start_time < ? AND reservations.end_time > ?", end, start)
	if excludeID != 0 {
		q = q.Where("reservations.id <> ?", excludeID)
	}

	var rows []*reservationDatamodel.Reservation
	if err := q.Order("reservations.start_time ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReservationRepository) Create(ctx context.Context, row *reservationDatamodel.Reservation) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *ReservationRepository) Update(ctx context.Context, row *reservationDatamodel.Reservation) error {
	return r.db.WithContext(ctx).
		Model(&reservationDatamodel.Reservation{ID: row.ID}).
		Select("start_time", "end_time", "purpose", "attendee_count", "status", "modified_by", "updated_at").
		Updates(row).Error
}

func (r *ReservationRepository) List(ctx context.Context, filter reservation.ListFilter, params pagination.Params) ([]*reservationDatamodel.Reservation, int64, error) {
	q := r.db.WithContext(ctx).Model(&reservationDatamodel.Reservation{})
	if filter.RoomID != nil {
		q = q.Where("reservations.meeting_room_id = ?", *filter.RoomID)
	}
	if filter.UserID != nil {
		q = q.Where("reservations.user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		q = q.Where("reservations.status = ?", string(*filter.Status))
	}
	if filter.StartDate != nil {
		q = q.Where("reservations.end_time > ?", filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		q = q.Where("reservations.start_time < ?", filter.EndDate.UTC())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*reservationDatamodel.Reservation
	err := q.Select(reservationColumns).
		Joins("LEFT JOIN meeting_rooms ON meeting_rooms.id = reservations.meeting_room_id").
		Joins("LEFT JOIN users ON users.id = reservations.user_id").
		Order("reservations.start_time ASC, reservations.id ASC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *ReservationRepository) ListForRoom(ctx context.Context, roomID int64, from, to time.Time) ([]*reservationDatamodel.Reservation, error) {
	var rows []*reservationDatamodel.Reservation
	err := r.joined(ctx).
		Where("reservations.meeting_room_id = ?", roomID).
		Where("reservations.status = ?", string(reservation.StatusConfirmed)).
		Where("reservations.start_time < ? AND reservations.end_time > ?", to, from).
		Order("reservations.start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReservationRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&reservationDatamodel.Reservation{}).
		Select(reservationColumns).
		Joins("LEFT JOIN meeting_rooms ON meeting_rooms.id = reservations.meeting_room_id").
		Joins("LEFT JOIN users ON users.id = reservations.user_id")
}
