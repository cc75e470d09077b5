package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/OpenDocFlow/docflow/internal/auth"
	"github.com/OpenDocFlow/docflow/internal/directory"
	"github.com/OpenDocFlow/docflow/internal/workflow/model"
	"github.com/OpenDocFlow/docflow/pkg/apperrors"
)

func TestIsCrossCompany(t *testing.T) {
	companyA := uuid.New()
	companyB := uuid.New()

	assert.False(t, IsCrossCompany(nil, nil))
	assert.False(t, IsCrossCompany(&companyA, nil))
	assert.False(t, IsCrossCompany(nil, &companyB))
	assert.False(t, IsCrossCompany(&companyA, &companyA))
	assert.True(t, IsCrossCompany(&companyA, &companyB))
}

func TestApprovalGateEvaluate(t *testing.T) {
	var gate ApprovalGate
	companyA := uuid.New()
	companyB := uuid.New()
	target := model.DepartmentTarget(uuid.New(), "Customs")

	t.Run("Same Company Passes Through", func(t *testing.T) {
		actor := memberActor(companyA)
		decision, err := gate.Evaluate(model.ApprovalRequestWorkflowRouting, &companyA, &companyA, target, model.WorkflowStatusAssigned, actor)
		assert.NoError(t, err)
		assert.False(t, decision.RequiresApproval)
		assert.Nil(t, decision.Request)
	})

	t.Run("Unknown Target Company Passes Through", func(t *testing.T) {
		actor := memberActor(companyA)
		decision, err := gate.Evaluate(model.ApprovalRequestWorkflowRouting, &companyA, nil, target, model.WorkflowStatusAssigned, actor)
		assert.NoError(t, err)
		assert.False(t, decision.RequiresApproval)
	})

	t.Run("Cross Company By Member Denied", func(t *testing.T) {
		actor := memberActor(companyA)
		_, err := gate.Evaluate(model.ApprovalRequestWorkflowRouting, &companyA, &companyB, target, model.WorkflowStatusAssigned, actor)
		assert.Error(t, err)
		var denied *apperrors.AccessDeniedError
		assert.ErrorAs(t, err, &denied)
	})

	t.Run("Cross Company By Admin Creates Pending Request", func(t *testing.T) {
		actor := &auth.Actor{ID: uuid.New(), CompanyID: companyA, Role: directory.RoleCompanyAdmin}
		decision, err := gate.Evaluate(model.ApprovalRequestWorkflowRouting, &companyA, &companyB, target, model.WorkflowStatusInProgress, actor)
		assert.NoError(t, err)
		assert.True(t, decision.RequiresApproval)
		assert.Equal(t, model.ApprovalRequestWorkflowRouting, decision.Request.Type)
		assert.Equal(t, companyA, decision.Request.SourceCompanyID)
		assert.Equal(t, companyB, decision.Request.TargetCompanyID)
		assert.Equal(t, target, decision.Request.ProposedTarget)
		assert.Equal(t, model.ApprovalStatePending, decision.Request.Status)
		assert.Equal(t, model.WorkflowStatusInProgress, decision.Request.PriorStatus)
		assert.Equal(t, actor.ID, decision.Request.RequestedByID)
	})
}
