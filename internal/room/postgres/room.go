package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/intranet-portal/internal/core/common/pagination"
	roomDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/room"
	"github.com/frahmantamala/intranet-portal/internal/room"
	"gorm.io/gorm"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) room.RepositoryAPI {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) List(ctx context.Context, includeInactive bool, params pagination.Params) ([]*roomDatamodel.MeetingRoom, int64, error) {
	query := r.db.WithContext(ctx).Model(&roomDatamodel.MeetingRoom{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rooms []*roomDatamodel.MeetingRoom
	err := query.Order("name ASC").Offset(params.Offset()).Limit(params.Limit()).Find(&rooms).Error
	return rooms, total, err
}

func (r *RoomRepository) GetByName(ctx context.Context, name string) (*roomDatamodel.MeetingRoom, error) {
	var rm roomDatamodel.MeetingRoom
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&rm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rm, nil
}

func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*roomDatamodel.MeetingRoom, error) {
	var rm roomDatamodel.MeetingRoom
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rm, nil
}

func (r *RoomRepository) Create(ctx context.Context, rm *roomDatamodel.MeetingRoom) error {
	return r.db.WithContext(ctx).Create(rm).Error
}

func (r *RoomRepository) Update(ctx context.Context, rm *roomDatamodel.MeetingRoom) error {
	return r.db.WithContext(ctx).Save(rm).Error
}
