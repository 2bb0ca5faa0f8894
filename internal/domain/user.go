package domain

import (
	"encoding/json"
	"time"
)

// Role is the platform role of a user.
type Role string

// User roles.
const (
	RoleDonor     Role = "donor"
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
	RoleRider     Role = "rider"
)

// IsValid checks if the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleDonor, RoleVolunteer, RoleAdmin, RoleRider:
		return true
	}
	return false
}

// UserStatus is the account status of a user.
type UserStatus string

// User statuses.
const (
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

// User is a registered platform member. Profile fields beyond the typed ones
// (name, avatar, blood group, district, ...) are kept in Attributes.
type User struct {
	ID         string
	Email      string
	Role       Role
	Status     UserStatus
	CreatedAt  time.Time
	Attributes Attributes
}

// IsBlocked reports whether the account is blocked.
func (u *User) IsBlocked() bool {
	return u.Status == UserStatusBlocked
}

// MarshalJSON renders the user as a flat document.
func (u User) MarshalJSON() ([]byte, error) {
	return marshalFlat(map[string]any{
		"id":        u.ID,
		"email":     u.Email,
		"role":      u.Role,
		"status":    u.Status,
		"createdAt": u.CreatedAt,
	}, u.Attributes)
}

// UnmarshalJSON reads a flat user document.
func (u *User) UnmarshalJSON(data []byte) error {
	p, err := DecodePatch(data)
	if err != nil {
		return err
	}
	id, _, err := p.popString("id")
	if err != nil {
		return err
	}
	patch, err := NewUserPatch(p)
	if err != nil {
		return err
	}
	createdAt, _, err := p.popTime("createdAt")
	if err != nil {
		return err
	}
	*u = User{ID: id, CreatedAt: createdAt, Attributes: patch.Attributes}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.Status != nil {
		u.Status = *patch.Status
	}
	return nil
}

// NewUserFromPayload builds a user from a registration payload.
func NewUserFromPayload(p Patch) (*User, error) {
	patch, err := NewUserPatch(p)
	if err != nil {
		return nil, err
	}
	u := &User{Attributes: patch.Attributes}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	return u, nil
}

// UserPatch is a partial update of a user document.
type UserPatch struct {
	Email      *string
	Role       *Role
	Status     *UserStatus
	Attributes Attributes
}

// NewUserPatch splits a client payload into typed fields and free-form attributes.
// The creation timestamp is never taken from a payload.
func NewUserPatch(p Patch) (UserPatch, error) {
	rest := p.clone()
	delete(rest, "createdAt")

	var patch UserPatch
	if email, ok, err := rest.popString("email"); err != nil {
		return UserPatch{}, err
	} else if ok {
		patch.Email = &email
	}
	if role, ok, err := rest.popString("role"); err != nil {
		return UserPatch{}, err
	} else if ok {
		r := Role(role)
		patch.Role = &r
	}
	if status, ok, err := rest.popString("status"); err != nil {
		return UserPatch{}, err
	} else if ok {
		s := UserStatus(status)
		patch.Status = &s
	}
	patch.Attributes = rest.attributes()
	return patch, nil
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Email == nil && p.Role == nil && p.Status == nil && len(p.Attributes) == 0
}

// Apply merges the patch into u.
func (p UserPatch) Apply(u *User) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	if len(p.Attributes) > 0 && u.Attributes == nil {
		u.Attributes = Attributes{}
	}
	for k, v := range p.Attributes {
		u.Attributes[k] = v
	}
}

// AttributesJSON encodes the patch attributes for storage.
func (p UserPatch) AttributesJSON() ([]byte, error) {
	if p.Attributes == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.Attributes)
}
