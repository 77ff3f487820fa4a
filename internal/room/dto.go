package room

import (
	"github.com/frahmantamala/intranet-portal/internal/core/common/validation"
)

type CreateRoomDTO struct {
	Name      string   `json:"name"`
	Capacity  int      `json:"capacity"`
	Location  string   `json:"location"`
	Amenities []string `json:"amenities"`
}

func (d CreateRoomDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	v.Field("capacity", d.Capacity).MinInt(1).MaxInt(1000)
	v.Field("location", d.Location).MaxLength(200)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateRoomDTO struct {
	Name      *string   `json:"name,omitempty"`
	Capacity  *int      `json:"capacity,omitempty"`
	Location  *string   `json:"location,omitempty"`
	Amenities *[]string `json:"amenities,omitempty"`
	IsActive  *bool     `json:"isActive,omitempty"`
}

func (d UpdateRoomDTO) Validate() error {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", d.Name).Required().MaxLength(100)
	}
	if d.Capacity != nil {
		v.Field("capacity", d.Capacity).MinInt(1).MaxInt(1000)
	}
	if d.Location != nil {
		v.Field("location", d.Location).MaxLength(200)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
