package model

import (
	"time"

	"github.com/google/uuid"
)

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalStatusPending    GoalStatus = "pending"
	GoalStatusInProgress GoalStatus = "in_progress"
	GoalStatusAchieved   GoalStatus = "achieved"
)

// GoalAssigneeType discriminates who a goal is assigned to.
type GoalAssigneeType string

const (
	GoalAssigneeUser            GoalAssigneeType = "user"
	GoalAssigneeDepartment      GoalAssigneeType = "department"
	GoalAssigneeAllParticipants GoalAssigneeType = "all_participants"
)

// GoalAssignee is one entry of a goal's explicit assigned-users overlay.
// Entries of type department grant visibility to every member of that
// department.
type GoalAssignee struct {
	Type TargetType `json:"type"`
	ID   *uuid.UUID `json:"id,omitempty"`
	Name string     `json:"name"`
}

// GoalAssignees is the jsonb-persisted overlay list.
type GoalAssignees []GoalAssignee

// Goal is a follow-up item under a workflow, creatable only once the
// workflow is ready for review or completed, and visible only to resolved
// participants.
type Goal struct {
	BaseModel
	WorkflowID uuid.UUID `gorm:"type:uuid;column:workflow_id;not null;index" json:"workflowId"`
	CompanyID  uuid.UUID `gorm:"type:uuid;column:company_id;not null;index" json:"companyId"`

	Title       string     `gorm:"type:varchar(255);column:title;not null" json:"title"`
	Description string     `gorm:"type:text;column:description" json:"description"`
	Status      GoalStatus `gorm:"type:varchar(20);column:status;not null" json:"status"`

	AssignedToType GoalAssigneeType `gorm:"type:varchar(30);column:assigned_to_type;not null" json:"assignedToType"`
	AssignedToID   *uuid.UUID       `gorm:"type:uuid;column:assigned_to_id" json:"assignedToId,omitempty"`
	AssignedToName string           `gorm:"type:varchar(255);column:assigned_to_name" json:"assignedToName"`
	AssignedUsers  GoalAssignees    `gorm:"type:jsonb;column:assigned_users;serializer:json" json:"assignedUsers,omitempty"`

	DueDate     *time.Time `gorm:"type:timestamptz;column:due_date" json:"dueDate,omitempty"`
	CreatedByID uuid.UUID  `gorm:"type:uuid;column:created_by_id;not null" json:"createdById"`

	AchievedAt       *time.Time `gorm:"type:timestamptz;column:achieved_at" json:"achievedAt,omitempty"`
	AchievedByID     *uuid.UUID `gorm:"type:uuid;column:achieved_by_id" json:"achievedById,omitempty"`
	AchievementNotes string     `gorm:"type:text;column:achievement_notes" json:"achievementNotes,omitempty"`
}

func (g *Goal) TableName() string {
	return "workflow_goals"
}
