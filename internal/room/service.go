package room

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frahmantamala/intranet-portal/internal"
	"github.com/frahmantamala/intranet-portal/internal/auth"
	"github.com/frahmantamala/intranet-portal/internal/core/common/pagination"
	roomDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/room"
	"github.com/frahmantamala/intranet-portal/internal/core/dberr"
)

type RepositoryAPI interface {
	List(ctx context.Context, includeInactive bool, params pagination.Params) ([]*roomDatamodel.MeetingRoom, int64, error)
	GetByID(ctx context.Context, id int64) (*roomDatamodel.MeetingRoom, error)
	GetByName(ctx context.Context, name string) (*roomDatamodel.MeetingRoom, error)
	Create(ctx context.Context, room *roomDatamodel.MeetingRoom) error
	Update(ctx context.Context, room *roomDatamodel.MeetingRoom) error
}

var (
	ErrRoomNotFound  = internal.NewNotFoundError("Meeting room not found", internal.ErrCodeNotFound)
	ErrDuplicateRoom = internal.NewConflictError("A meeting room with this name already exists", internal.ErrCodeDuplicateRoom)
)

type Service struct {
	repo   RepositoryAPI
	policy *auth.Policy
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, policy *auth.Policy, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		policy: policy,
		logger: logger,
	}
}

// List returns rooms ordered by name. Inactive rooms are only listed for
// admins that ask for them.
func (s *Service) List(ctx context.Context, actor *auth.User, includeInactive bool, params pagination.Params) (pagination.Page[*Room], error) {
	if includeInactive && !s.policy.IsAdmin(actor) {
		includeInactive = false
	}

	rows, total, err := s.repo.List(ctx, includeInactive, params)
	if err != nil {
		s.logger.Error("failed to list rooms", "error", err)
		return pagination.Page[*Room]{}, internal.NewInternalError("failed to list rooms", err)
	}

	rooms := make([]*Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, FromDataModel(row))
	}
	return pagination.NewPage(rooms, params, total), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Room, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get room", "error", err, "room_id", id)
		return nil, internal.NewInternalError("failed to get room", err)
	}
	if row == nil {
		return nil, ErrRoomNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, actor *auth.User, dto CreateRoomDTO) (*Room, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(dto.Name)
	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return nil, err
	}

	room := NewRoom(name, dto.Capacity, strings.TrimSpace(dto.Location), dto.Amenities)
	row := ToDataModel(room)
	if err := s.repo.Create(ctx, row); err != nil {
		if dberr.IsUniqueViolation(err) {
			return nil, ErrDuplicateRoom
		}
		s.logger.Error("failed to create room", "error", err)
		return nil, internal.NewInternalError("failed to create room", err)
	}

	s.logger.Info("room created", "room_id", row.ID, "name", row.Name)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, actor *auth.User, id int64, dto UpdateRoomDTO) (*Room, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		name := strings.TrimSpace(*dto.Name)
		if name != room.Name {
			if err := s.ensureNameFree(ctx, name, id); err != nil {
				return nil, err
			}
		}
		room.Name = name
	}
	if dto.Capacity != nil {
		room.Capacity = *dto.Capacity
	}
	if dto.Location != nil {
		room.Location = strings.TrimSpace(*dto.Location)
	}
	if dto.Amenities != nil {
		room.Amenities = *dto.Amenities
	}
	if dto.IsActive != nil {
		if *dto.IsActive {
			room.Activate()
		} else {
			room.Deactivate()
		}
	}

	row := ToDataModel(room)
	if err := s.repo.Update(ctx, row); err != nil {
		if dberr.IsUniqueViolation(err) {
			return nil, ErrDuplicateRoom
		}
		s.logger.Error("failed to update room", "error", err, "room_id", id)
		return nil, internal.NewInternalError("failed to update room", err)
	}
	return FromDataModel(row), nil
}

// Delete deactivates the room. Existing reservations are kept.
func (s *Service) Delete(ctx context.Context, actor *auth.User, id int64) error {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return err
	}
	room, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	room.Deactivate()
	if err := s.repo.Update(ctx, ToDataModel(room)); err != nil {
		s.logger.Error("failed to deactivate room", "error", err, "room_id", id)
		return internal.NewInternalError("failed to delete room", err)
	}
	s.logger.Info("room deactivated", "room_id", id)
	return nil
}

func (s *Service) ensureNameFree(ctx context.Context, name string, selfID int64) error {
	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return internal.NewInternalError("failed to check room name", err)
	}
	if existing != nil && existing.ID != selfID {
		return ErrDuplicateRoom
	}
	return nil
}
