package auth

import (
	"github.com/google/uuid"

	"github.com/shahanursiam/sampletrack/internal/models"
)

// Identity is the resolved caller passed into every service operation.
// Token verification happens upstream; by the time a request reaches the
// service layer it carries an id and a role, nothing more.
type Identity struct {
	ID   uuid.UUID
	Role models.Role
}

// Valid reports whether the identity carries a real user id.
func (i Identity) Valid() bool {
	return i.ID != uuid.Nil
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// CanManageSamples reports whether the caller may create or mutate samples.
func (i Identity) CanManageSamples() bool {
	return i.Role == models.RoleAdmin || i.Role == models.RoleMerchandiser
}
