package auth

import (
	"github.com/frahmantamala/intranet-portal/internal"
)

// Policy is the single place where ownership and role rules live. Services
// call it instead of repeating owner/admin conditionals.
type Policy struct{}

func NewPolicy() *Policy {
	return &Policy{}
}

func (p *Policy) IsAdmin(u *User) bool {
	return u.IsAdmin()
}

// CanMutate allows the resource owner or an admin.
func (p *Policy) CanMutate(u *User, ownerID int64) error {
	if u == nil {
		return internal.ErrUnauthorized
	}
	if u.IsAdmin() || u.ID == ownerID {
		return nil
	}
	return internal.ErrForbidden
}

// RequireAdmin fails with ErrForbidden unless u is an admin.
func (p *Policy) RequireAdmin(u *User) error {
	if u == nil {
		return internal.ErrUnauthorized
	}
	if !u.IsAdmin() {
		return internal.ErrForbidden
	}
	return nil
}
