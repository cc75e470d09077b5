package model

import "github.com/google/uuid"

// TargetType discriminates what an AssignmentTarget points at.
type TargetType string

const (
	TargetTypeUser       TargetType = "user"
	TargetTypeDepartment TargetType = "department"
	TargetTypeSystem     TargetType = "system" // terminal targets such as the filing marker
)

// FiledTargetName is the display name of the terminal filing target.
const FiledTargetName = "Filed"

// AssignmentTarget is a tagged reference to a user or a department carrying a
// display name. Workflows, actions, routing entries and approval requests all
// use it; it is persisted as an embedded column group, never as three
// independently interpreted nullable fields.
type AssignmentTarget struct {
	Type TargetType `gorm:"type:varchar(20);column:type" json:"type"`
	ID   *uuid.UUID `gorm:"type:uuid;column:id" json:"id,omitempty"`
	Name string     `gorm:"type:varchar(255);column:name" json:"name"`
}

// UserTarget builds a target pointing at a user.
func UserTarget(id uuid.UUID, name string) AssignmentTarget {
	return AssignmentTarget{Type: TargetTypeUser, ID: &id, Name: name}
}

// DepartmentTarget builds a target pointing at a department.
func DepartmentTarget(id uuid.UUID, name string) AssignmentTarget {
	return AssignmentTarget{Type: TargetTypeDepartment, ID: &id, Name: name}
}

// FiledTarget is the terminal system target recorded when a workflow's
// documents are filed.
func FiledTarget() AssignmentTarget {
	return AssignmentTarget{Type: TargetTypeSystem, Name: FiledTargetName}
}

// IsZero reports whether the target is unset.
func (t AssignmentTarget) IsZero() bool {
	return t.Type == "" && t.ID == nil && t.Name == ""
}

// IsUser reports whether the target points at the given user.
func (t AssignmentTarget) IsUser(userID uuid.UUID) bool {
	return t.Type == TargetTypeUser && t.ID != nil && *t.ID == userID
}
