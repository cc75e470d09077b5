package model

import (
	"time"

	"github.com/google/uuid"
)

// ActionType classifies a task under a workflow.
type ActionType string

const (
	ActionTypeRegular         ActionType = "regular"
	ActionTypeDocumentUpload  ActionType = "document_upload"
	ActionTypeRequestResponse ActionType = "request_response"
)

// ActionStatus is the lifecycle state of an action.
type ActionStatus string

const (
	ActionStatusPending          ActionStatus = "pending"
	ActionStatusInProgress       ActionStatus = "in_progress"
	ActionStatusDocumentUploaded ActionStatus = "document_uploaded"
	ActionStatusResponseReceived ActionStatus = "response_received"
	ActionStatusCompleted        ActionStatus = "completed"
)

// Progressed reports whether the status counts toward workflow progress.
// Uploading or responding moves the workflow forward even before the action
// itself is marked done.
func (s ActionStatus) Progressed() bool {
	return s == ActionStatusCompleted ||
		s == ActionStatusDocumentUploaded ||
		s == ActionStatusResponseReceived
}

// Action is a discrete task under a workflow that contributes to its
// progress. It carries the workflow's company id from the moment of creation.
type Action struct {
	BaseModel
	WorkflowID uuid.UUID `gorm:"type:uuid;column:workflow_id;not null;index" json:"workflowId"`
	CompanyID  uuid.UUID `gorm:"type:uuid;column:company_id;not null;index" json:"companyId"`

	Title       string       `gorm:"type:varchar(255);column:title;not null" json:"title"`
	Description string       `gorm:"type:text;column:description" json:"description"`
	Type        ActionType   `gorm:"type:varchar(30);column:type;not null" json:"type"`
	Status      ActionStatus `gorm:"type:varchar(30);column:status;not null" json:"status"`

	Assignee AssignmentTarget `gorm:"embedded;embeddedPrefix:assignee_" json:"assignee"`
	DueDate  *time.Time       `gorm:"type:timestamptz;column:due_date" json:"dueDate,omitempty"`

	CompletedAt     *time.Time `gorm:"type:timestamptz;column:completed_at" json:"completedAt,omitempty"`
	CompletedByID   *uuid.UUID `gorm:"type:uuid;column:completed_by_id" json:"completedById,omitempty"`
	ResolutionNotes string     `gorm:"type:text;column:resolution_notes" json:"resolutionNotes,omitempty"`

	UploadedFileName string     `gorm:"type:varchar(512);column:uploaded_file_name" json:"uploadedFileName,omitempty"`
	UploadedAt       *time.Time `gorm:"type:timestamptz;column:uploaded_at" json:"uploadedAt,omitempty"`

	ResponseText string     `gorm:"type:text;column:response_text" json:"responseText,omitempty"`
	RespondedAt  *time.Time `gorm:"type:timestamptz;column:responded_at" json:"respondedAt,omitempty"`

	IsCrossCompany  bool       `gorm:"column:is_cross_company;not null;default:false" json:"isCrossCompany"`
	SourceCompanyID *uuid.UUID `gorm:"type:uuid;column:source_company_id" json:"sourceCompanyId,omitempty"`
	TargetCompanyID *uuid.UUID `gorm:"type:uuid;column:target_company_id" json:"targetCompanyId,omitempty"`

	ApprovalStatus    *ApprovalState `gorm:"type:varchar(20);column:approval_status" json:"approvalStatus,omitempty"`
	ApprovalRequestID *uuid.UUID     `gorm:"type:uuid;column:approval_request_id" json:"approvalRequestId,omitempty"`
}

func (a *Action) TableName() string {
	return "workflow_actions"
}
