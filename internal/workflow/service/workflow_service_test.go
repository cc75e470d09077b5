package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/OpenDocFlow/docflow/internal/auth"
	"github.com/OpenDocFlow/docflow/internal/directory"
	"github.com/OpenDocFlow/docflow/internal/workflow/model"
	"github.com/OpenDocFlow/docflow/pkg/apperrors"
)

type workflowFixture struct {
	workflows *MockWorkflowRepository
	actions   *MockActionRepository
	goals     *MockGoalRepository
	approvals *MockApprovalRequestRepository
	dir       *MockDirectory
	notifier  *recordingNotifier
	svc       *WorkflowService
}

func newWorkflowFixture() *workflowFixture {
	f := &workflowFixture{
		workflows: new(MockWorkflowRepository),
		actions:   new(MockActionRepository),
		goals:     new(MockGoalRepository),
		approvals: new(MockApprovalRequestRepository),
		dir:       new(MockDirectory),
		notifier:  &recordingNotifier{},
	}
	f.svc = NewWorkflowService(
		fakeTxRunner{},
		f.workflows,
		f.goals,
		f.approvals,
		f.actions,
		NewRoutingEngine(f.dir),
		f.dir,
		f.notifier,
		noopActivityLogger{},
		noopBroadcaster{},
	)
	return f
}

func TestCreateWorkflow(t *testing.T) {
	ctx := context.Background()
	companyA := uuid.New()
	companyB := uuid.New()

	t.Run("Missing Title Rejected", func(t *testing.T) {
		f := newWorkflowFixture()
		_, err := f.svc.CreateWorkflow(ctx, &model.CreateWorkflowDTO{Type: model.WorkflowTypeDocument}, memberActor(companyA))
		var validation *apperrors.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("Same Company Assignment Applies Directly", func(t *testing.T) {
		f := newWorkflowFixture()
		actor := memberActor(companyA)
		assigneeID := uuid.New()

		f.dir.On("CompanyOfUser", ctx, assigneeID).Return(companyA, nil).Once()
		f.workflows.On("CreateWorkflowInTx", ctx, (*gorm.DB)(nil), mock.AnythingOfType("*model.Workflow")).Return(nil).Once()

		wf, err := f.svc.CreateWorkflow(ctx, &model.CreateWorkflowDTO{
			Title:    "Import licence renewal",
			Type:     model.WorkflowTypeDocument,
			Assignee: model.UserTarget(assigneeID, "Alice Perera"),
		}, actor)
		assert.NoError(t, err)
		assert.Equal(t, model.WorkflowStatusAssigned, wf.Status)
		assert.Nil(t, wf.ApprovalStatus)
		assert.Equal(t, companyA, wf.CompanyID)
		assert.Equal(t, actor.ID, wf.CreatedByID)
		f.workflows.AssertExpectations(t)
		f.approvals.AssertNotCalled(t, "CreateApprovalRequestInTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Cross Company Assignment By Member Denied", func(t *testing.T) {
		f := newWorkflowFixture()
		actor := memberActor(companyA)
		assigneeID := uuid.New()

		f.dir.On("CompanyOfUser", ctx, assigneeID).Return(companyB, nil).Once()
		f.dir.On("ResolveUserName", ctx, assigneeID).Return("Bob Silva", nil).Maybe()

		_, err := f.svc.CreateWorkflow(ctx, &model.CreateWorkflowDTO{
			Title:    "Customs clearance",
			Type:     model.WorkflowTypeFolder,
			Assignee: model.UserTarget(assigneeID, "Bob Silva"),
		}, actor)
		var denied *apperrors.AccessDeniedError
		assert.ErrorAs(t, err, &denied)
	})

	t.Run("Cross Company Assignment By Admin Is Gated", func(t *testing.T) {
		f := newWorkflowFixture()
		actor := &auth.Actor{ID: uuid.New(), CompanyID: companyA, Role: directory.RoleCompanyAdmin}
		assigneeID := uuid.New()

		f.dir.On("CompanyOfUser", ctx, assigneeID).Return(companyB, nil).Once()
		f.workflows.On("CreateWorkflowInTx", ctx, (*gorm.DB)(nil), mock.AnythingOfType("*model.Workflow")).Return(nil).Once()
		f.approvals.On("CreateApprovalRequestInTx", ctx, (*gorm.DB)(nil), mock.MatchedBy(func(req *model.ApprovalRequest) bool {
			return req.Type == model.ApprovalRequestWorkflowAssignment &&
				req.SourceCompanyID == companyA &&
				req.TargetCompanyID == companyB &&
				req.Status == model.ApprovalStatePending
		})).Return(nil).Once()
		f.workflows.On("AppendRoutingEntriesInTx", ctx, (*gorm.DB)(nil), mock.MatchedBy(func(entries []model.RoutingHistoryEntry) bool {
			return len(entries) == 1 &&
				entries[0].Sequence == 1 &&
				entries[0].From.IsZero() &&
				entries[0].IsCrossCompany
		})).Return(nil).Once()

		wf, err := f.svc.CreateWorkflow(ctx, &model.CreateWorkflowDTO{
			Title:    "Customs clearance",
			Type:     model.WorkflowTypeFolder,
			Assignee: model.UserTarget(assigneeID, "Bob Silva"),
		}, actor)
		assert.NoError(t, err)
		assert.Equal(t, model.WorkflowStatusPending, wf.Status)
		if assert.NotNil(t, wf.ApprovalStatus) {
			assert.Equal(t, model.ApprovalStatePending, *wf.ApprovalStatus)
		}
		f.approvals.AssertExpectations(t)
		f.workflows.AssertExpectations(t)
	})
}

func TestUpdateWorkflowRoutingAppend(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	newStored := func() *model.Workflow {
		return &model.Workflow{
			BaseModel:   model.BaseModel{ID: uuid.New()},
			Title:       "Quarterly audit",
			Status:      model.WorkflowStatusInProgress,
			CompanyID:   companyID,
			CreatedByID: uuid.New(),
			Assignee:    model.UserTarget(uuid.New(), "Current Holder"),
		}
	}

	t.Run("Replaying Unchanged Prefix Appends Nothing", func(t *testing.T) {
		f := newWorkflowFixture()
		actor := memberActor(companyID)
		wf := newStored()

		f.workflows.On("GetWorkflowForUpdateInTx", ctx, (*gorm.DB)(nil), wf.ID).Return(wf, nil).Once()
		f.workflows.On("CountRoutingEntriesInTx", ctx, (*gorm.DB)(nil), wf.ID).Return(2, nil).Once()
		f.workflows.On("SaveWorkflowInTx", ctx, (*gorm.DB)(nil), wf).Return(nil).Once()

		patch := &model.UpdateWorkflowDTO{
			RoutingHistory: []model.RoutingEntryInput{
				{To: model.UserTarget(uuid.New(), "A")},
				{To: model.UserTarget(uuid.New(), "B")},
			},
		}
		_, err := f.svc.UpdateWorkflow(ctx, wf.ID, patch, actor)
		assert.NoError(t, err)
		f.workflows.AssertNotCalled(t, "AppendRoutingEntriesInTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Entries Beyond Stored Count Are Appended", func(t *testing.T) {
		f := newWorkflowFixture()
		actor := memberActor(companyID)
		wf := newStored()
		newAssigneeID := uuid.New()

		f.workflows.On("GetWorkflowForUpdateInTx", ctx, (*gorm.DB)(nil), wf.ID).Return(wf, nil).Once()
		f.workflows.On("CountRoutingEntriesInTx", ctx, (*gorm.DB)(nil), wf.ID).Return(1, nil).Once()
		f.dir.On("CompanyOfUser", ctx, newAssigneeID).Return(companyID, nil).Once()
		f.workflows.On("AppendRoutingEntriesInTx", ctx, (*gorm.DB)(nil), mock.MatchedBy(func(entries []model.RoutingHistoryEntry) bool {
			return len(entries) == 1 && entries[0].Sequence == 2
		})).Return(nil).Once()
		f.workflows.On("SaveWorkflowInTx", ctx, (*gorm.DB)(nil), wf).Return(nil).Once()

		patch := &model.UpdateWorkflowDTO{
			RoutingHistory: []model.RoutingEntryInput{
				{To: model.UserTarget(uuid.New(), "A")},
				{To: model.UserTarget(newAssigneeID, "New Holder")},
			},
		}
		updated, err := f.svc.UpdateWorkflow(ctx, wf.ID, patch, actor)
		assert.NoError(t, err)
		assert.True(t, updated.Assignee.IsUser(newAssigneeID))
		f.workflows.AssertExpectations(t)
	})

	t.Run("Other Company Denied Before Any Mutation", func(t *testing.T) {
		f := newWorkflowFixture()
		actor := memberActor(uuid.New())
		wf := newStored()

		f.workflows.On("GetWorkflowForUpdateInTx", ctx, (*gorm.DB)(nil), wf.ID).Return(wf, nil).Once()

		_, err := f.svc.UpdateWorkflow(ctx, wf.ID, &model.UpdateWorkflowDTO{}, actor)
		var denied *apperrors.AccessDeniedError
		assert.ErrorAs(t, err, &denied)
		f.workflows.AssertNotCalled(t, "SaveWorkflowInTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("FiledAt Requires Completed", func(t *testing.T) {
		f := newWorkflowFixture()
		actor := memberActor(companyID)
		wf := newStored()

		f.workflows.On("GetWorkflowForUpdateInTx", ctx, (*gorm.DB)(nil), wf.ID).Return(wf, nil).Once()

		now := time.Now().UTC()
		_, err := f.svc.UpdateWorkflow(ctx, wf.ID, &model.UpdateWorkflowDTO{FiledAt: &now}, actor)
		var invalid *apperrors.InvalidStateError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("Filing Sends Goal Reminders", func(t *testing.T) {
		f := newWorkflowFixture()
		actor := memberActor(companyID)
		wf := newStored()
		wf.Status = model.WorkflowStatusCompleted

		goalAssigneeID := uuid.New()
		goal := model.Goal{
			BaseModel:      model.BaseModel{ID: uuid.New()},
			WorkflowID:     wf.ID,
			Title:          "Archive signed copies",
			Status:         model.GoalStatusPending,
			AssignedToType: model.GoalAssigneeUser,
			AssignedToID:   &goalAssigneeID,
			CreatedByID:    actor.ID,
		}

		f.workflows.On("GetWorkflowForUpdateInTx", ctx, (*gorm.DB)(nil), wf.ID).Return(wf, nil).Once()
		f.workflows.On("SaveWorkflowInTx", ctx, (*gorm.DB)(nil), wf).Return(nil).Once()
		f.goals.On("GetGoalsByWorkflowID", ctx, wf.ID).Return([]model.Goal{goal}, nil).Once()

		now := time.Now().UTC()
		updated, err := f.svc.UpdateWorkflow(ctx, wf.ID, &model.UpdateWorkflowDTO{FiledAt: &now}, actor)
		assert.NoError(t, err)
		assert.NotNil(t, updated.FiledAt)

		recipients := make(map[uuid.UUID]bool)
		for _, send := range f.notifier.sends {
			assert.Equal(t, "goal_reminder", send.Kind)
			recipients[send.UserID] = true
		}
		assert.True(t, recipients[goalAssigneeID])
		assert.True(t, recipients[actor.ID]) // creator is always a recipient
	})
}

func TestRoute(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("Filing Stamps FiledAt Without Reassigning", func(t *testing.T) {
		f := newWorkflowFixture()
		actor := memberActor(companyID)
		holder := model.UserTarget(uuid.New(), "Current Holder")
		wf := &model.Workflow{
			BaseModel:   model.BaseModel{ID: uuid.New()},
			Status:      model.WorkflowStatusCompleted,
			CompanyID:   companyID,
			CreatedByID: uuid.New(),
			Assignee:    holder,
		}

		f.workflows.On("GetWorkflowForUpdateInTx", ctx, (*gorm.DB)(nil), wf.ID).Return(wf, nil).Once()
		f.workflows.On("CountRoutingEntriesInTx", ctx, (*gorm.DB)(nil), wf.ID).Return(3, nil).Once()
		f.workflows.On("AppendRoutingEntriesInTx", ctx, (*gorm.DB)(nil), mock.MatchedBy(func(entries []model.RoutingHistoryEntry) bool {
			return len(entries) == 1 &&
				entries[0].Sequence == 4 &&
				entries[0].Type == model.RoutingTypeFiled &&
				entries[0].To == model.FiledTarget()
		})).Return(nil).Once()
		f.workflows.On("SaveWorkflowInTx", ctx, (*gorm.DB)(nil), wf).Return(nil).Once()
		f.goals.On("GetGoalsByWorkflowID", ctx, wf.ID).Return([]model.Goal{}, nil).Once()

		routed, err := f.svc.Route(ctx, wf.ID, model.RouteWorkflowDTO{Intent: model.RouteIntentFileDocuments}, actor)
		assert.NoError(t, err)
		assert.NotNil(t, routed.FiledAt)
		assert.Equal(t, holder, routed.Assignee)
		f.workflows.AssertExpectations(t)
	})

	t.Run("Department Routing On Completed Rejected", func(t *testing.T) {
		f := newWorkflowFixture()
		actor := memberActor(companyID)
		wf := &model.Workflow{
			BaseModel:   model.BaseModel{ID: uuid.New()},
			Status:      model.WorkflowStatusCompleted,
			CompanyID:   companyID,
			CreatedByID: uuid.New(),
		}
		deptID := uuid.New()

		f.workflows.On("GetWorkflowForUpdateInTx", ctx, (*gorm.DB)(nil), wf.ID).Return(wf, nil).Once()

		_, err := f.svc.Route(ctx, wf.ID, model.RouteWorkflowDTO{Intent: model.RouteIntentDepartment, DepartmentID: &deptID}, actor)
		var invalid *apperrors.InvalidStateError
		assert.ErrorAs(t, err, &invalid)
	})
}

func TestDecideApproval(t *testing.T) {
	ctx := context.Background()
	companyA := uuid.New()
	companyB := uuid.New()

	newRequest := func(workflowID uuid.UUID) *model.ApprovalRequest {
		return &model.ApprovalRequest{
			BaseModel:       model.BaseModel{ID: uuid.New()},
			Type:            model.ApprovalRequestWorkflowRouting,
			WorkflowID:      &workflowID,
			SourceCompanyID: companyA,
			TargetCompanyID: companyB,
			ProposedTarget:  model.DepartmentTarget(uuid.New(), "Customs"),
			Status:          model.ApprovalStatePending,
			PriorStatus:     model.WorkflowStatusInProgress,
			RequestedByID:   uuid.New(),
		}
	}

	t.Run("Member Cannot Decide", func(t *testing.T) {
		f := newWorkflowFixture()
		request := newRequest(uuid.New())
		f.approvals.On("GetApprovalRequestByID", ctx, request.ID).Return(request, nil).Once()

		_, err := f.svc.DecideApproval(ctx, request.ID, &model.DecideApprovalDTO{Approve: true}, memberActor(companyB))
		var denied *apperrors.AccessDeniedError
		assert.ErrorAs(t, err, &denied)
	})

	t.Run("Source Company Admin Cannot Decide", func(t *testing.T) {
		f := newWorkflowFixture()
		request := newRequest(uuid.New())
		actor := &auth.Actor{ID: uuid.New(), CompanyID: companyA, Role: directory.RoleCompanyAdmin}
		f.approvals.On("GetApprovalRequestByID", ctx, request.ID).Return(request, nil).Once()

		_, err := f.svc.DecideApproval(ctx, request.ID, &model.DecideApprovalDTO{Approve: true}, actor)
		var denied *apperrors.AccessDeniedError
		assert.ErrorAs(t, err, &denied)
	})

	t.Run("Approve Applies Proposed Target", func(t *testing.T) {
		f := newWorkflowFixture()
		workflowID := uuid.New()
		request := newRequest(workflowID)
		actor := &auth.Actor{ID: uuid.New(), CompanyID: companyB, Role: directory.RoleCompanyAdmin}

		pending := model.ApprovalStatePending
		wf := &model.Workflow{
			BaseModel:      model.BaseModel{ID: workflowID},
			Status:         model.WorkflowStatusPending,
			ApprovalStatus: &pending,
			CompanyID:      companyA,
		}

		f.approvals.On("GetApprovalRequestByID", ctx, request.ID).Return(request, nil).Once()
		f.approvals.On("GetApprovalRequestForUpdateInTx", ctx, (*gorm.DB)(nil), request.ID).Return(request, nil).Once()
		f.approvals.On("SaveApprovalRequestInTx", ctx, (*gorm.DB)(nil), request).Return(nil).Once()
		f.workflows.On("GetWorkflowForUpdateInTx", ctx, (*gorm.DB)(nil), workflowID).Return(wf, nil).Once()
		f.workflows.On("SaveWorkflowInTx", ctx, (*gorm.DB)(nil), wf).Return(nil).Once()

		decided, err := f.svc.DecideApproval(ctx, request.ID, &model.DecideApprovalDTO{Approve: true}, actor)
		assert.NoError(t, err)
		assert.Equal(t, model.ApprovalStateApproved, decided.Status)
		assert.Equal(t, request.ProposedTarget, wf.Assignee)
		assert.Nil(t, wf.ApprovalStatus)
		assert.Equal(t, model.WorkflowStatusInProgress, wf.Status)
	})

	t.Run("Reject Restores Prior Status", func(t *testing.T) {
		f := newWorkflowFixture()
		workflowID := uuid.New()
		request := newRequest(workflowID)
		actor := &auth.Actor{ID: uuid.New(), CompanyID: companyB, Role: directory.RoleCompanyAdmin}

		pending := model.ApprovalStatePending
		holder := model.UserTarget(uuid.New(), "Current Holder")
		wf := &model.Workflow{
			BaseModel:      model.BaseModel{ID: workflowID},
			Status:         model.WorkflowStatusPending,
			ApprovalStatus: &pending,
			CompanyID:      companyA,
			Assignee:       holder,
		}

		f.approvals.On("GetApprovalRequestByID", ctx, request.ID).Return(request, nil).Once()
		f.approvals.On("GetApprovalRequestForUpdateInTx", ctx, (*gorm.DB)(nil), request.ID).Return(request, nil).Once()
		f.approvals.On("SaveApprovalRequestInTx", ctx, (*gorm.DB)(nil), request).Return(nil).Once()
		f.workflows.On("GetWorkflowForUpdateInTx", ctx, (*gorm.DB)(nil), workflowID).Return(wf, nil).Once()
		f.workflows.On("SaveWorkflowInTx", ctx, (*gorm.DB)(nil), wf).Return(nil).Once()

		decided, err := f.svc.DecideApproval(ctx, request.ID, &model.DecideApprovalDTO{Approve: false}, actor)
		assert.NoError(t, err)
		assert.Equal(t, model.ApprovalStateRejected, decided.Status)
		assert.Equal(t, holder, wf.Assignee) // proposed target never applied
		if assert.NotNil(t, wf.ApprovalStatus) {
			assert.Equal(t, model.ApprovalStateRejected, *wf.ApprovalStatus)
		}
		assert.Equal(t, model.WorkflowStatusInProgress, wf.Status)
	})

	t.Run("Concurrent Decision Loses Under Lock", func(t *testing.T) {
		f := newWorkflowFixture()
		request := newRequest(uuid.New())
		actor := &auth.Actor{ID: uuid.New(), CompanyID: companyB, Role: directory.RoleCompanyAdmin}

		// The unlocked read still sees pending, but another decision commits
		// first: the row-locked re-read finds the request already decided
		// and this decision must not apply on top of it.
		decided := *request
		decided.Status = model.ApprovalStateApproved
		f.approvals.On("GetApprovalRequestByID", ctx, request.ID).Return(request, nil).Once()
		f.approvals.On("GetApprovalRequestForUpdateInTx", ctx, (*gorm.DB)(nil), request.ID).Return(&decided, nil).Once()

		_, err := f.svc.DecideApproval(ctx, request.ID, &model.DecideApprovalDTO{Approve: false}, actor)
		var invalid *apperrors.InvalidStateError
		assert.ErrorAs(t, err, &invalid)
		f.approvals.AssertNotCalled(t, "SaveApprovalRequestInTx", mock.Anything, mock.Anything, mock.Anything)
		f.workflows.AssertNotCalled(t, "SaveWorkflowInTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Already Decided Rejected", func(t *testing.T) {
		f := newWorkflowFixture()
		request := newRequest(uuid.New())
		request.Status = model.ApprovalStateApproved
		actor := &auth.Actor{ID: uuid.New(), CompanyID: companyB, Role: directory.RoleCompanyAdmin}
		f.approvals.On("GetApprovalRequestByID", ctx, request.ID).Return(request, nil).Once()

		_, err := f.svc.DecideApproval(ctx, request.ID, &model.DecideApprovalDTO{Approve: true}, actor)
		var invalid *apperrors.InvalidStateError
		assert.ErrorAs(t, err, &invalid)
	})
}

func TestFindWorkflowCompanyIsolation(t *testing.T) {
	ctx := context.Background()
	f := newWorkflowFixture()
	wf := &model.Workflow{
		BaseModel: model.BaseModel{ID: uuid.New()},
		CompanyID: uuid.New(),
	}
	f.workflows.On("GetWorkflowByID", ctx, wf.ID).Return(wf, nil).Twice()

	_, err := f.svc.FindWorkflow(ctx, wf.ID, memberActor(uuid.New()))
	var denied *apperrors.AccessDeniedError
	assert.ErrorAs(t, err, &denied)

	found, err := f.svc.FindWorkflow(ctx, wf.ID, auth.SystemActor())
	assert.NoError(t, err)
	assert.Equal(t, wf, found)
}
