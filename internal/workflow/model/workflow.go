package model

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowType classifies the unit of routed work.
type WorkflowType string

const (
	WorkflowTypeFolder   WorkflowType = "folder"
	WorkflowTypeDocument WorkflowType = "document"
)

// WorkflowStatus is the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusPending        WorkflowStatus = "pending" // gated behind a cross-company approval
	WorkflowStatusAssigned       WorkflowStatus = "assigned"
	WorkflowStatusInProgress     WorkflowStatus = "in_progress"
	WorkflowStatusReadyForReview WorkflowStatus = "ready_for_review"
	WorkflowStatusCompleted      WorkflowStatus = "completed"
)

// ApprovalState is the approval status carried by gated workflows, actions
// and approval requests.
type ApprovalState string

const (
	ApprovalStatePending  ApprovalState = "pending"
	ApprovalStateApproved ApprovalState = "approved"
	ApprovalStateRejected ApprovalState = "rejected"
)

// Workflow is a unit of routed work moving between assignees, possibly across
// company boundaries, until it is completed and filed.
type Workflow struct {
	BaseModel
	Title       string       `gorm:"type:varchar(255);column:title;not null" json:"title"`
	Description string       `gorm:"type:text;column:description" json:"description"`
	Type        WorkflowType `gorm:"type:varchar(20);column:type;not null" json:"type"`

	Status WorkflowStatus `gorm:"type:varchar(30);column:status;not null" json:"status"`
	// Progress is derived from the workflow's action set and never written
	// directly by clients.
	Progress int        `gorm:"column:progress;not null;default:0" json:"progress"`
	DueDate  *time.Time `gorm:"type:timestamptz;column:due_date" json:"dueDate,omitempty"`

	CompanyID         uuid.UUID  `gorm:"type:uuid;column:company_id;not null;index" json:"companyId"`
	SourceCompanyID   *uuid.UUID `gorm:"type:uuid;column:source_company_id" json:"sourceCompanyId,omitempty"`
	SourceCompanyName string     `gorm:"type:varchar(255);column:source_company_name" json:"sourceCompanyName,omitempty"`
	TargetCompanyID   *uuid.UUID `gorm:"type:uuid;column:target_company_id" json:"targetCompanyId,omitempty"`
	TargetCompanyName string     `gorm:"type:varchar(255);column:target_company_name" json:"targetCompanyName,omitempty"`
	IsCrossCompany    bool       `gorm:"column:is_cross_company;not null;default:false" json:"isCrossCompany"`

	ApprovalStatus *ApprovalState `gorm:"type:varchar(20);column:approval_status" json:"approvalStatus,omitempty"`

	Assignee    AssignmentTarget `gorm:"embedded;embeddedPrefix:assignee_" json:"assignee"`
	CreatedByID uuid.UUID        `gorm:"type:uuid;column:created_by_id;not null" json:"createdById"`

	// FiledAt marks the terminal filing event; it may only be set while the
	// workflow status is completed.
	FiledAt     *time.Time `gorm:"type:timestamptz;column:filed_at" json:"filedAt,omitempty"`
	CompletedAt *time.Time `gorm:"type:timestamptz;column:completed_at" json:"completedAt,omitempty"`

	RoutingHistory []RoutingHistoryEntry `gorm:"foreignKey:WorkflowID;references:ID" json:"routingHistory,omitempty"`
	Actions        []Action              `gorm:"foreignKey:WorkflowID;references:ID" json:"actions,omitempty"`
	Goals          []Goal                `gorm:"foreignKey:WorkflowID;references:ID" json:"goals,omitempty"`
}

func (w *Workflow) TableName() string {
	return "workflows"
}

// AcceptsGoals reports whether goals may be created under the workflow.
func (w *Workflow) AcceptsGoals() bool {
	return w.Status == WorkflowStatusReadyForReview || w.Status == WorkflowStatusCompleted
}
