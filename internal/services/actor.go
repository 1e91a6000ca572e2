// internal/services/actor.go
package services

import (
	"github.com/google/uuid"

	"github.com/licensehub/licensehub-backend/internal/models"
)

// Actor is the authorization context for one operation: the acting user's
// identity plus the capability-relevant parts of their profile. Services
// never look roles up ambiently; every operation takes the Actor it should
// authorize against.
type Actor struct {
	UserID        uuid.UUID
	Username      string
	Role          models.Role
	Department    string
	DepartmentKey string
}

func (a *Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

func (a *Actor) IsDeptHead() bool {
	return a.Role == models.RoleDeptHead
}

// SameDepartment reports whether the given profile belongs to the actor's
// department, using the normalized key.
func (a *Actor) SameDepartment(p *models.Profile) bool {
	return a.DepartmentKey != "" && p != nil && p.DepartmentKey == a.DepartmentKey
}
