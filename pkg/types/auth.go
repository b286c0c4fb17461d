package types

import (
	"github.com/google/uuid"

	"github.com/nguyendm/salemarket-backend/pkg/enums"
)

// AuthContext carries the authenticated caller identity through service
// operations. It is resolved once by middleware and passed explicitly.
type AuthContext struct {
	UserID uuid.UUID
	Roles  []enums.Role
}

// HasRole reports whether the caller holds the given role.
func (a AuthContext) HasRole(role enums.Role) bool {
	for _, candidate := range a.Roles {
		if candidate == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the caller holds the admin role.
func (a AuthContext) IsAdmin() bool {
	return a.HasRole(enums.RoleAdmin)
}
