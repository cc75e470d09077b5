package model

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalRequestType classifies what a cross-company approval request is
// gating.
type ApprovalRequestType string

const (
	ApprovalRequestWorkflowAssignment ApprovalRequestType = "workflow_assignment"
	ApprovalRequestWorkflowRouting    ApprovalRequestType = "workflow_routing"
	ApprovalRequestActionAssignment   ApprovalRequestType = "action_assignment"
)

// ApprovalRequest is created by the cross-company approval gate when a
// routing or assignment crosses a company boundary. The owning workflow or
// action stays pending until the target company decides.
type ApprovalRequest struct {
	BaseModel
	Type ApprovalRequestType `gorm:"type:varchar(30);column:type;not null" json:"type"`

	WorkflowID *uuid.UUID `gorm:"type:uuid;column:workflow_id;index" json:"workflowId,omitempty"`
	ActionID   *uuid.UUID `gorm:"type:uuid;column:action_id;index" json:"actionId,omitempty"`

	SourceCompanyID uuid.UUID `gorm:"type:uuid;column:source_company_id;not null" json:"sourceCompanyId"`
	TargetCompanyID uuid.UUID `gorm:"type:uuid;column:target_company_id;not null;index" json:"targetCompanyId"`

	ProposedTarget AssignmentTarget `gorm:"embedded;embeddedPrefix:proposed_" json:"proposedTarget"`

	Status ApprovalState `gorm:"type:varchar(20);column:status;not null" json:"status"`

	// PriorStatus is the workflow status held before gating, restored when
	// the request is rejected.
	PriorStatus WorkflowStatus `gorm:"type:varchar(30);column:prior_status" json:"priorStatus,omitempty"`

	RequestedByID uuid.UUID  `gorm:"type:uuid;column:requested_by_id;not null" json:"requestedById"`
	DecidedByID   *uuid.UUID `gorm:"type:uuid;column:decided_by_id" json:"decidedById,omitempty"`
	DecidedAt     *time.Time `gorm:"type:timestamptz;column:decided_at" json:"decidedAt,omitempty"`
	DecisionNotes string     `gorm:"type:text;column:decision_notes" json:"decisionNotes,omitempty"`
}

func (r *ApprovalRequest) TableName() string {
	return "approval_requests"
}
