package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/OpenDocFlow/docflow/internal/directory"
	"github.com/OpenDocFlow/docflow/internal/workflow/model"
)

// fakeTxRunner runs the transactional closure directly with a nil handle so
// repository mocks can assert on it.
type fakeTxRunner struct{}

func (fakeTxRunner) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// MockWorkflowRepository is a mock implementation of WorkflowRepository
type MockWorkflowRepository struct {
	mock.Mock
}

func (m *MockWorkflowRepository) GetWorkflowByID(ctx context.Context, id uuid.UUID) (*model.Workflow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Workflow), args.Error(1)
}

func (m *MockWorkflowRepository) GetWorkflowForUpdateInTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Workflow, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Workflow), args.Error(1)
}

func (m *MockWorkflowRepository) ListWorkflowsByCompanyID(ctx context.Context, companyID uuid.UUID, offset, limit int) ([]model.Workflow, error) {
	args := m.Called(ctx, companyID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Workflow), args.Error(1)
}

func (m *MockWorkflowRepository) CreateWorkflowInTx(ctx context.Context, tx *gorm.DB, wf *model.Workflow) error {
	args := m.Called(ctx, tx, wf)
	return args.Error(0)
}

func (m *MockWorkflowRepository) SaveWorkflowInTx(ctx context.Context, tx *gorm.DB, wf *model.Workflow) error {
	args := m.Called(ctx, tx, wf)
	return args.Error(0)
}

func (m *MockWorkflowRepository) GetRoutingHistoryInTx(ctx context.Context, tx *gorm.DB, workflowID uuid.UUID) ([]model.RoutingHistoryEntry, error) {
	args := m.Called(ctx, tx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RoutingHistoryEntry), args.Error(1)
}

func (m *MockWorkflowRepository) CountRoutingEntriesInTx(ctx context.Context, tx *gorm.DB, workflowID uuid.UUID) (int, error) {
	args := m.Called(ctx, tx, workflowID)
	return args.Int(0), args.Error(1)
}

func (m *MockWorkflowRepository) AppendRoutingEntriesInTx(ctx context.Context, tx *gorm.DB, entries []model.RoutingHistoryEntry) error {
	args := m.Called(ctx, tx, entries)
	return args.Error(0)
}

// MockActionRepository is a mock implementation of ActionRepository
type MockActionRepository struct {
	mock.Mock
}

func (m *MockActionRepository) GetActionByID(ctx context.Context, id uuid.UUID) (*model.Action, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Action), args.Error(1)
}

func (m *MockActionRepository) GetActionForUpdateInTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Action, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Action), args.Error(1)
}

func (m *MockActionRepository) GetActionsByWorkflowIDInTx(ctx context.Context, tx *gorm.DB, workflowID uuid.UUID) ([]model.Action, error) {
	args := m.Called(ctx, tx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Action), args.Error(1)
}

func (m *MockActionRepository) CreateActionInTx(ctx context.Context, tx *gorm.DB, action *model.Action) error {
	args := m.Called(ctx, tx, action)
	return args.Error(0)
}

func (m *MockActionRepository) SaveActionInTx(ctx context.Context, tx *gorm.DB, action *model.Action) error {
	args := m.Called(ctx, tx, action)
	return args.Error(0)
}

// MockGoalRepository is a mock implementation of GoalRepository
type MockGoalRepository struct {
	mock.Mock
}

func (m *MockGoalRepository) GetGoalByID(ctx context.Context, id uuid.UUID) (*model.Goal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Goal), args.Error(1)
}

func (m *MockGoalRepository) GetGoalsByWorkflowID(ctx context.Context, workflowID uuid.UUID) ([]model.Goal, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Goal), args.Error(1)
}

func (m *MockGoalRepository) GetGoalsByCompanyID(ctx context.Context, companyID uuid.UUID) ([]model.Goal, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Goal), args.Error(1)
}

func (m *MockGoalRepository) ListUnachievedDueGoals(ctx context.Context) ([]model.Goal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Goal), args.Error(1)
}

func (m *MockGoalRepository) CreateGoal(ctx context.Context, goal *model.Goal) error {
	args := m.Called(ctx, goal)
	return args.Error(0)
}

func (m *MockGoalRepository) SaveGoal(ctx context.Context, goal *model.Goal) error {
	args := m.Called(ctx, goal)
	return args.Error(0)
}

func (m *MockGoalRepository) DeleteGoal(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockApprovalRequestRepository is a mock implementation of ApprovalRequestRepository
type MockApprovalRequestRepository struct {
	mock.Mock
}

func (m *MockApprovalRequestRepository) GetApprovalRequestByID(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalRequestRepository) GetApprovalRequestForUpdateInTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.ApprovalRequest, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalRequestRepository) ListPendingByTargetCompany(ctx context.Context, companyID uuid.UUID, offset, limit int) ([]model.ApprovalRequest, error) {
	args := m.Called(ctx, companyID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalRequestRepository) CreateApprovalRequestInTx(ctx context.Context, tx *gorm.DB, req *model.ApprovalRequest) error {
	args := m.Called(ctx, tx, req)
	return args.Error(0)
}

func (m *MockApprovalRequestRepository) SaveApprovalRequestInTx(ctx context.Context, tx *gorm.DB, req *model.ApprovalRequest) error {
	args := m.Called(ctx, tx, req)
	return args.Error(0)
}

// MockDirectory is a mock implementation of the Directory lookup collaborator
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) ResolveUserName(ctx context.Context, id uuid.UUID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockDirectory) ResolveDepartmentName(ctx context.Context, id uuid.UUID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockDirectory) ResolveCompanyName(ctx context.Context, id uuid.UUID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockDirectory) FindSecretary(ctx context.Context, companyID uuid.UUID) (*directory.User, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.User), args.Error(1)
}

func (m *MockDirectory) FindDepartmentHead(ctx context.Context, departmentID uuid.UUID) (*directory.User, error) {
	args := m.Called(ctx, departmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.User), args.Error(1)
}

func (m *MockDirectory) UsersInDepartment(ctx context.Context, departmentID uuid.UUID) ([]directory.User, error) {
	args := m.Called(ctx, departmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]directory.User), args.Error(1)
}

func (m *MockDirectory) CompanyOfUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockDirectory) CompanyOfDepartment(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// recordingNotifier collects dispatched notifications.
type recordingNotifier struct {
	mu    sync.Mutex
	sends []recordedNotification
}

type recordedNotification struct {
	UserID  uuid.UUID
	Kind    string
	Payload map[string]any
}

func (n *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, kind string, payload map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sends = append(n.sends, recordedNotification{UserID: userID, Kind: kind, Payload: payload})
	return nil
}

type noopActivityLogger struct{}

func (noopActivityLogger) Record(ctx context.Context, userID, companyID uuid.UUID, activityType, resourceType string, resourceID uuid.UUID, description string) error {
	return nil
}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(channel, event string, payload any) error {
	return nil
}
