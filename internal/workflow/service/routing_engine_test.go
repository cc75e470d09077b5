package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/OpenDocFlow/docflow/internal/directory"
	"github.com/OpenDocFlow/docflow/internal/workflow/model"
	"github.com/OpenDocFlow/docflow/pkg/apperrors"
)

func TestResolveTarget(t *testing.T) {
	ctx := context.Background()

	t.Run("Good Name Untouched", func(t *testing.T) {
		dir := new(MockDirectory)
		engine := NewRoutingEngine(dir)
		id := uuid.New()
		target := engine.ResolveTarget(ctx, model.UserTarget(id, "Alice Perera"))
		assert.Equal(t, "Alice Perera", target.Name)
		dir.AssertNotCalled(t, "ResolveUserName")
	})

	t.Run("Missing Name Looked Up", func(t *testing.T) {
		dir := new(MockDirectory)
		engine := NewRoutingEngine(dir)
		id := uuid.New()
		dir.On("ResolveUserName", ctx, id).Return("Alice Perera", nil).Once()

		target := engine.ResolveTarget(ctx, model.UserTarget(id, ""))
		assert.Equal(t, "Alice Perera", target.Name)
		dir.AssertExpectations(t)
	})

	t.Run("Name Equal To Raw ID Re-resolved", func(t *testing.T) {
		dir := new(MockDirectory)
		engine := NewRoutingEngine(dir)
		id := uuid.New()
		dir.On("ResolveUserName", ctx, id).Return("Alice Perera", nil).Once()

		target := engine.ResolveTarget(ctx, model.UserTarget(id, id.String()))
		assert.Equal(t, "Alice Perera", target.Name)
		dir.AssertExpectations(t)
	})

	t.Run("Lookup Miss Falls Back To Raw ID", func(t *testing.T) {
		dir := new(MockDirectory)
		engine := NewRoutingEngine(dir)
		id := uuid.New()
		dir.On("ResolveUserName", ctx, id).Return("", nil).Once()

		target := engine.ResolveTarget(ctx, model.UserTarget(id, ""))
		assert.Equal(t, id.String(), target.Name)
	})

	t.Run("No ID Falls Back To Unknown", func(t *testing.T) {
		dir := new(MockDirectory)
		engine := NewRoutingEngine(dir)

		target := engine.ResolveTarget(ctx, model.AssignmentTarget{Type: model.TargetTypeUser})
		assert.Equal(t, "Unknown", target.Name)
	})

	t.Run("Zero Target Untouched", func(t *testing.T) {
		dir := new(MockDirectory)
		engine := NewRoutingEngine(dir)

		target := engine.ResolveTarget(ctx, model.AssignmentTarget{})
		assert.True(t, target.IsZero())
	})
}

func TestResolveIntent(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	newWorkflow := func(status model.WorkflowStatus) *model.Workflow {
		return &model.Workflow{
			BaseModel:   model.BaseModel{ID: uuid.New()},
			Status:      status,
			CompanyID:   companyID,
			CreatedByID: uuid.New(),
		}
	}

	t.Run("Secretary", func(t *testing.T) {
		dir := new(MockDirectory)
		engine := NewRoutingEngine(dir)
		secretary := &directory.User{ID: uuid.New(), Name: "Registry Clerk"}
		dir.On("FindSecretary", ctx, companyID).Return(secretary, nil).Once()

		target, routingType, err := engine.ResolveIntent(ctx, newWorkflow(model.WorkflowStatusInProgress), model.RouteWorkflowDTO{Intent: model.RouteIntentSecretary})
		assert.NoError(t, err)
		assert.Equal(t, model.RoutingTypeManual, routingType)
		assert.Equal(t, model.UserTarget(secretary.ID, "Registry Clerk"), target)
	})

	t.Run("No Secretary Is Validation Error", func(t *testing.T) {
		dir := new(MockDirectory)
		engine := NewRoutingEngine(dir)
		dir.On("FindSecretary", ctx, companyID).Return(nil, apperrors.NewValidation("company", "company has no secretary")).Once()

		_, _, err := engine.ResolveIntent(ctx, newWorkflow(model.WorkflowStatusInProgress), model.RouteWorkflowDTO{Intent: model.RouteIntentSecretary})
		var validation *apperrors.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("Department Requires ID", func(t *testing.T) {
		dir := new(MockDirectory)
		engine := NewRoutingEngine(dir)

		_, _, err := engine.ResolveIntent(ctx, newWorkflow(model.WorkflowStatusInProgress), model.RouteWorkflowDTO{Intent: model.RouteIntentDepartment})
		var validation *apperrors.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("Unknown Department Is Validation Error", func(t *testing.T) {
		dir := new(MockDirectory)
		engine := NewRoutingEngine(dir)
		deptID := uuid.New()
		dir.On("ResolveDepartmentName", ctx, deptID).Return("", nil).Once()

		_, _, err := engine.ResolveIntent(ctx, newWorkflow(model.WorkflowStatusInProgress), model.RouteWorkflowDTO{Intent: model.RouteIntentDepartment, DepartmentID: &deptID})
		var validation *apperrors.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("Individual", func(t *testing.T) {
		dir := new(MockDirectory)
		engine := NewRoutingEngine(dir)
		userID := uuid.New()
		dir.On("ResolveUserName", ctx, userID).Return("Alice Perera", nil).Once()

		target, routingType, err := engine.ResolveIntent(ctx, newWorkflow(model.WorkflowStatusAssigned), model.RouteWorkflowDTO{Intent: model.RouteIntentIndividual, UserID: &userID})
		assert.NoError(t, err)
		assert.Equal(t, model.RoutingTypeManual, routingType)
		assert.Equal(t, model.UserTarget(userID, "Alice Perera"), target)
	})

	t.Run("Original Sender", func(t *testing.T) {
		dir := new(MockDirectory)
		engine := NewRoutingEngine(dir)
		wf := newWorkflow(model.WorkflowStatusInProgress)
		dir.On("ResolveUserName", ctx, wf.CreatedByID).Return("Original Sender", nil).Once()

		target, _, err := engine.ResolveIntent(ctx, wf, model.RouteWorkflowDTO{Intent: model.RouteIntentOriginalSender})
		assert.NoError(t, err)
		assert.True(t, target.IsUser(wf.CreatedByID))
		assert.Equal(t, "Original Sender", target.Name)
	})

	t.Run("Completed Blocks Everything But Filing", func(t *testing.T) {
		dir := new(MockDirectory)
		engine := NewRoutingEngine(dir)
		deptID := uuid.New()

		_, _, err := engine.ResolveIntent(ctx, newWorkflow(model.WorkflowStatusCompleted), model.RouteWorkflowDTO{Intent: model.RouteIntentDepartment, DepartmentID: &deptID})
		var invalid *apperrors.InvalidStateError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("Filing Requires Completed", func(t *testing.T) {
		dir := new(MockDirectory)
		engine := NewRoutingEngine(dir)

		_, _, err := engine.ResolveIntent(ctx, newWorkflow(model.WorkflowStatusInProgress), model.RouteWorkflowDTO{Intent: model.RouteIntentFileDocuments})
		var invalid *apperrors.InvalidStateError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("Filing On Completed Yields Filed Target", func(t *testing.T) {
		dir := new(MockDirectory)
		engine := NewRoutingEngine(dir)

		target, routingType, err := engine.ResolveIntent(ctx, newWorkflow(model.WorkflowStatusCompleted), model.RouteWorkflowDTO{Intent: model.RouteIntentFileDocuments})
		assert.NoError(t, err)
		assert.Equal(t, model.RoutingTypeFiled, routingType)
		assert.Equal(t, model.FiledTarget(), target)
	})

	t.Run("Unknown Intent", func(t *testing.T) {
		dir := new(MockDirectory)
		engine := NewRoutingEngine(dir)

		_, _, err := engine.ResolveIntent(ctx, newWorkflow(model.WorkflowStatusAssigned), model.RouteWorkflowDTO{Intent: "teleport"})
		var validation *apperrors.ValidationError
		assert.ErrorAs(t, err, &validation)
	})
}

func TestBuildRoutingEntry(t *testing.T) {
	ctx := context.Background()
	dir := new(MockDirectory)
	engine := NewRoutingEngine(dir)

	actorID := uuid.New()
	wf := &model.Workflow{
		BaseModel: model.BaseModel{ID: uuid.New()},
		Assignee:  model.UserTarget(uuid.New(), "Current Holder"),
	}
	to := model.DepartmentTarget(uuid.New(), "Finance")

	entry := engine.BuildRoutingEntry(ctx, wf, to, actorID, "forwarded for review", model.RoutingTypeManual)
	assert.Equal(t, wf.ID, entry.WorkflowID)
	assert.Equal(t, wf.Assignee, entry.From)
	assert.Equal(t, to, entry.To)
	assert.Equal(t, actorID, entry.RoutedByID)
	assert.Equal(t, model.RoutingTypeManual, entry.Type)
	assert.Equal(t, "forwarded for review", entry.Notes)
	assert.False(t, entry.RoutedAt.IsZero())
}
