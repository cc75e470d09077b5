package service

import (
	"github.com/google/uuid"

	"github.com/OpenDocFlow/docflow/internal/auth"
	"github.com/OpenDocFlow/docflow/internal/workflow/model"
	"github.com/OpenDocFlow/docflow/pkg/apperrors"
)

// IsCrossCompany reports whether a transition crosses a company boundary:
// both ids non-null and unequal.
func IsCrossCompany(sourceCompanyID, targetCompanyID *uuid.UUID) bool {
	if sourceCompanyID == nil || targetCompanyID == nil {
		return false
	}
	return *sourceCompanyID != *targetCompanyID
}

// GateDecision is the outcome of evaluating a proposed transition against
// the cross-company approval gate.
type GateDecision struct {
	// RequiresApproval is true when the change must not apply directly; the
	// orchestrator creates Request and forces the owner to pending instead.
	RequiresApproval bool
	Request          *model.ApprovalRequest
}

// ApprovalGate decides whether a proposed routing or assignment applies
// immediately or must wait for the target company's approval.
type ApprovalGate struct{}

// Evaluate gates a proposed transition. Same-company changes pass through.
// Cross-company changes require the actor to hold elevated privilege; for
// elevated actors the gate produces a pending ApprovalRequest describing the
// proposed hop.
func (ApprovalGate) Evaluate(
	reqType model.ApprovalRequestType,
	sourceCompanyID, targetCompanyID *uuid.UUID,
	proposed model.AssignmentTarget,
	priorStatus model.WorkflowStatus,
	actor *auth.Actor,
) (*GateDecision, error) {
	if !IsCrossCompany(sourceCompanyID, targetCompanyID) {
		return &GateDecision{RequiresApproval: false}, nil
	}

	if !actor.Elevated() {
		return nil, apperrors.NewAccessDenied("cross-company routing requires elevated privilege")
	}

	return &GateDecision{
		RequiresApproval: true,
		Request: &model.ApprovalRequest{
			Type:            reqType,
			SourceCompanyID: *sourceCompanyID,
			TargetCompanyID: *targetCompanyID,
			ProposedTarget:  proposed,
			Status:          model.ApprovalStatePending,
			PriorStatus:     priorStatus,
			RequestedByID:   actor.ID,
		},
	}, nil
}
