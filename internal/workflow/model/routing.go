package model

import (
	"time"

	"github.com/google/uuid"
)

// RoutingType classifies a routing history entry.
type RoutingType string

const (
	RoutingTypeManual       RoutingType = "manual"
	RoutingTypeFiled        RoutingType = "filed"
	RoutingTypeCrossCompany RoutingType = "cross_company"
)

// RouteIntent expresses the caller's routing intention; the routing engine
// resolves it to a concrete target.
type RouteIntent string

const (
	RouteIntentSecretary      RouteIntent = "secretary"
	RouteIntentDepartment     RouteIntent = "department"
	RouteIntentIndividual     RouteIntent = "individual"
	RouteIntentDepartmentHead RouteIntent = "department_head"
	RouteIntentOriginalSender RouteIntent = "original_sender"
	RouteIntentFileDocuments  RouteIntent = "file_documents"
)

// RoutingHistoryEntry records one hop in a workflow's routing path. The log
// is append-only and ordered by Sequence; a new entry's From always equals
// the workflow's assignee immediately prior to the transition.
type RoutingHistoryEntry struct {
	BaseModel
	WorkflowID uuid.UUID `gorm:"type:uuid;column:workflow_id;not null;index" json:"workflowId"`
	Sequence   int       `gorm:"column:sequence;not null" json:"sequence"`

	From AssignmentTarget `gorm:"embedded;embeddedPrefix:from_" json:"from"`
	To   AssignmentTarget `gorm:"embedded;embeddedPrefix:to_" json:"to"`

	RoutedByID uuid.UUID   `gorm:"type:uuid;column:routed_by_id;not null" json:"routedById"`
	RoutedAt   time.Time   `gorm:"type:timestamptz;column:routed_at;not null" json:"routedAt"`
	Type       RoutingType `gorm:"type:varchar(20);column:type;not null" json:"type"`
	Notes      string      `gorm:"type:text;column:notes" json:"notes,omitempty"`

	IsCrossCompany  bool       `gorm:"column:is_cross_company;not null;default:false" json:"isCrossCompany"`
	SourceCompanyID *uuid.UUID `gorm:"type:uuid;column:source_company_id" json:"sourceCompanyId,omitempty"`
	TargetCompanyID *uuid.UUID `gorm:"type:uuid;column:target_company_id" json:"targetCompanyId,omitempty"`
}

func (r *RoutingHistoryEntry) TableName() string {
	return "workflow_routing_history"
}
