package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenDocFlow/docflow/internal/directory"
	"github.com/OpenDocFlow/docflow/internal/workflow/model"
)

// TxRunner opens a transaction for the orchestrator's multi-write flows.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// WorkflowRepository is the persistence boundary for workflows and their
// routing history.
type WorkflowRepository interface {
	GetWorkflowByID(ctx context.Context, id uuid.UUID) (*model.Workflow, error)
	// GetWorkflowForUpdateInTx loads the workflow under a FOR UPDATE row
	// lock, serializing routing-history appends and progress propagation.
	GetWorkflowForUpdateInTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Workflow, error)
	ListWorkflowsByCompanyID(ctx context.Context, companyID uuid.UUID, offset, limit int) ([]model.Workflow, error)
	CreateWorkflowInTx(ctx context.Context, tx *gorm.DB, wf *model.Workflow) error
	SaveWorkflowInTx(ctx context.Context, tx *gorm.DB, wf *model.Workflow) error
	GetRoutingHistoryInTx(ctx context.Context, tx *gorm.DB, workflowID uuid.UUID) ([]model.RoutingHistoryEntry, error)
	CountRoutingEntriesInTx(ctx context.Context, tx *gorm.DB, workflowID uuid.UUID) (int, error)
	AppendRoutingEntriesInTx(ctx context.Context, tx *gorm.DB, entries []model.RoutingHistoryEntry) error
}

// ActionRepository is the persistence boundary for actions.
type ActionRepository interface {
	GetActionByID(ctx context.Context, id uuid.UUID) (*model.Action, error)
	// GetActionForUpdateInTx loads the action under a FOR UPDATE row lock.
	// Patches must be applied to this copy, never to one read before the
	// lock, or concurrent updates overwrite each other.
	GetActionForUpdateInTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Action, error)
	GetActionsByWorkflowIDInTx(ctx context.Context, tx *gorm.DB, workflowID uuid.UUID) ([]model.Action, error)
	CreateActionInTx(ctx context.Context, tx *gorm.DB, action *model.Action) error
	SaveActionInTx(ctx context.Context, tx *gorm.DB, action *model.Action) error
}

// GoalRepository is the persistence boundary for goals.
type GoalRepository interface {
	GetGoalByID(ctx context.Context, id uuid.UUID) (*model.Goal, error)
	GetGoalsByWorkflowID(ctx context.Context, workflowID uuid.UUID) ([]model.Goal, error)
	GetGoalsByCompanyID(ctx context.Context, companyID uuid.UUID) ([]model.Goal, error)
	ListUnachievedDueGoals(ctx context.Context) ([]model.Goal, error)
	CreateGoal(ctx context.Context, goal *model.Goal) error
	SaveGoal(ctx context.Context, goal *model.Goal) error
	DeleteGoal(ctx context.Context, id uuid.UUID) error
}

// ApprovalRequestRepository is the persistence boundary for cross-company
// approval requests.
type ApprovalRequestRepository interface {
	GetApprovalRequestByID(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error)
	// GetApprovalRequestForUpdateInTx loads the request under a FOR UPDATE
	// row lock so concurrent decisions serialize on the pending check.
	GetApprovalRequestForUpdateInTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.ApprovalRequest, error)
	ListPendingByTargetCompany(ctx context.Context, companyID uuid.UUID, offset, limit int) ([]model.ApprovalRequest, error)
	CreateApprovalRequestInTx(ctx context.Context, tx *gorm.DB, req *model.ApprovalRequest) error
	SaveApprovalRequestInTx(ctx context.Context, tx *gorm.DB, req *model.ApprovalRequest) error
}

// Directory resolves ids to people, departments and companies. It is the
// identity lookup collaborator the routing engine and approval gate consume.
type Directory interface {
	ResolveUserName(ctx context.Context, id uuid.UUID) (string, error)
	ResolveDepartmentName(ctx context.Context, id uuid.UUID) (string, error)
	ResolveCompanyName(ctx context.Context, id uuid.UUID) (string, error)
	FindSecretary(ctx context.Context, companyID uuid.UUID) (*directory.User, error)
	FindDepartmentHead(ctx context.Context, departmentID uuid.UUID) (*directory.User, error)
	UsersInDepartment(ctx context.Context, departmentID uuid.UUID) ([]directory.User, error)
	CompanyOfUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	CompanyOfDepartment(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}
