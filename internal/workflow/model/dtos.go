package model

import (
	"time"

	"github.com/google/uuid"
)

// CreateWorkflowDTO carries the input for creating a workflow.
type CreateWorkflowDTO struct {
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Type            WorkflowType     `json:"type"`
	CompanyID       *uuid.UUID       `json:"companyId,omitempty"`
	SourceCompanyID *uuid.UUID       `json:"sourceCompanyId,omitempty"`
	TargetCompanyID *uuid.UUID       `json:"targetCompanyId,omitempty"`
	Assignee        AssignmentTarget `json:"assignee"`
	DueDate         *time.Time       `json:"dueDate,omitempty"`
}

// RoutingEntryInput is one client-submitted routing history entry. Clients
// resend the full history array; only entries beyond the stored count are
// treated as new.
type RoutingEntryInput struct {
	To    AssignmentTarget `json:"to"`
	Type  RoutingType      `json:"type"`
	Notes string           `json:"notes,omitempty"`
}

// UpdateWorkflowDTO is a sparse patch applied to a workflow.
type UpdateWorkflowDTO struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Status      *WorkflowStatus `json:"status,omitempty"` // explicit external override
	DueDate     *time.Time      `json:"dueDate,omitempty"`
	FiledAt     *time.Time      `json:"filedAt,omitempty"`

	RoutingHistory []RoutingEntryInput `json:"routingHistory,omitempty"`
}

// RouteWorkflowDTO asks the routing engine to move a workflow according to a
// caller intent.
type RouteWorkflowDTO struct {
	Intent       RouteIntent `json:"intent"`
	UserID       *uuid.UUID  `json:"userId,omitempty"`       // individual
	DepartmentID *uuid.UUID  `json:"departmentId,omitempty"` // department, department_head
	Notes        string      `json:"notes,omitempty"`
}

// CreateActionDTO carries the input for creating an action under a workflow.
type CreateActionDTO struct {
	WorkflowID  uuid.UUID        `json:"workflowId"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Type        ActionType       `json:"type"`
	Assignee    AssignmentTarget `json:"assignee"`
	DueDate     *time.Time       `json:"dueDate,omitempty"`
}

// UpdateActionDTO is a sparse patch applied to an action.
type UpdateActionDTO struct {
	Title            *string       `json:"title,omitempty"`
	Description      *string       `json:"description,omitempty"`
	Status           *ActionStatus `json:"status,omitempty"`
	ResolutionNotes  *string       `json:"resolutionNotes,omitempty"`
	UploadedFileName *string       `json:"uploadedFileName,omitempty"`
	ResponseText     *string       `json:"responseText,omitempty"`
	DueDate          *time.Time    `json:"dueDate,omitempty"`
}

// CreateGoalDTO carries the input for creating a goal under a workflow.
type CreateGoalDTO struct {
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	AssignedToType GoalAssigneeType `json:"assignedToType"`
	AssignedToID   *uuid.UUID       `json:"assignedToId,omitempty"`
	AssignedToName string           `json:"assignedToName"`
	AssignedUsers  GoalAssignees    `json:"assignedUsers,omitempty"`
	DueDate        *time.Time       `json:"dueDate,omitempty"`
}

// UpdateGoalDTO is a sparse patch applied to a goal.
type UpdateGoalDTO struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *GoalStatus `json:"status,omitempty"`
	DueDate     *time.Time  `json:"dueDate,omitempty"`
}

// AchieveGoalDTO carries the achievement metadata.
type AchieveGoalDTO struct {
	Notes string `json:"notes,omitempty"`
}

// DecideApprovalDTO carries an approve/reject decision on a pending
// cross-company approval request.
type DecideApprovalDTO struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes,omitempty"`
}
