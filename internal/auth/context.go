package auth

import (
	"github.com/google/uuid"

	"github.com/OpenDocFlow/docflow/internal/directory"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// ActorContextKey is the gin context key the middleware stores the
	// resolved Actor under.
	ActorContextKey = "actor"
)

// Actor is the authenticated caller of a workflow operation, with its
// company and department memberships resolved at authentication time.
type Actor struct {
	ID              uuid.UUID      `json:"id"`
	Name            string         `json:"name"`
	CompanyID       uuid.UUID      `json:"companyId"`
	Role            directory.Role `json:"role"`
	DepartmentIDs   []uuid.UUID    `json:"departmentIds"`
	DepartmentNames []string       `json:"departmentNames"`
}

// SystemActor is the unauthenticated-system actor used by back-office
// scripts. It bypasses company isolation and the completion guard.
func SystemActor() *Actor {
	return &Actor{Role: directory.RoleSystem}
}

// IsSystem reports whether the actor is the unauthenticated-system actor.
func (a *Actor) IsSystem() bool {
	return a.Role == directory.RoleSystem
}

// IsMaster reports whether the actor holds the privileged override role.
func (a *Actor) IsMaster() bool {
	return a.Role == directory.RoleMaster
}

// Privileged reports whether the actor bypasses company isolation and the
// action completion guard.
func (a *Actor) Privileged() bool {
	return a.Role.Privileged()
}

// Elevated reports whether the actor may initiate cross-company routing.
func (a *Actor) Elevated() bool {
	return a.Role.Elevated()
}

// InDepartment reports whether the actor belongs to the given department.
func (a *Actor) InDepartment(departmentID uuid.UUID) bool {
	for _, id := range a.DepartmentIDs {
		if id == departmentID {
			return true
		}
	}
	return false
}
