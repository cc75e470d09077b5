package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenDocFlow/docflow/internal/auth"
	"github.com/OpenDocFlow/docflow/internal/workflow/model"
	"github.com/OpenDocFlow/docflow/pkg/apperrors"
)

// WorkflowService orchestrates workflow creation, patching, routing, filing
// and cross-company approval decisions.
type WorkflowService struct {
	txr         TxRunner
	workflows   WorkflowRepository
	goals       GoalRepository
	approvals   ApprovalRequestRepository
	actionsRepo ActionRepository
	engine      *RoutingEngine
	gate        ApprovalGate
	policy      Policy
	dir         Directory
	notifier    Notifier
	activity    ActivityLogger
	broadcaster Broadcaster
}

// NewWorkflowService creates a WorkflowService.
func NewWorkflowService(
	txr TxRunner,
	workflows WorkflowRepository,
	goals GoalRepository,
	approvals ApprovalRequestRepository,
	actions ActionRepository,
	engine *RoutingEngine,
	dir Directory,
	notifier Notifier,
	activity ActivityLogger,
	broadcaster Broadcaster,
) *WorkflowService {
	return &WorkflowService{
		txr:         txr,
		workflows:   workflows,
		goals:       goals,
		approvals:   approvals,
		actionsRepo: actions,
		engine:      engine,
		dir:         dir,
		notifier:    notifier,
		activity:    activity,
		broadcaster: broadcaster,
	}
}

// CreateWorkflow creates a workflow, resolving its company by precedence
// (explicit, then source company, then the actor's company), resolving the
// initial assignee's display name, and gating cross-company initial
// assignments behind an approval request.
func (s *WorkflowService) CreateWorkflow(ctx context.Context, req *model.CreateWorkflowDTO, actor *auth.Actor) (*model.Workflow, error) {
	if req.Title == "" {
		return nil, apperrors.NewValidation("title", "title is required")
	}
	if req.Type != model.WorkflowTypeFolder && req.Type != model.WorkflowTypeDocument {
		return nil, apperrors.NewValidation("type", "type must be folder or document")
	}
	if req.Assignee.Type != model.TargetTypeUser && req.Assignee.Type != model.TargetTypeDepartment {
		return nil, apperrors.NewValidation("assignee", "assignee must reference a user or a department")
	}
	if req.Assignee.ID == nil {
		return nil, apperrors.NewValidation("assignee", "assignee id is required")
	}

	companyID := actor.CompanyID
	if req.CompanyID != nil {
		companyID = *req.CompanyID
	} else if req.SourceCompanyID != nil {
		companyID = *req.SourceCompanyID
	}

	wf := &model.Workflow{
		Title:           req.Title,
		Description:     req.Description,
		Type:            req.Type,
		Status:          model.WorkflowStatusAssigned,
		CompanyID:       companyID,
		SourceCompanyID: req.SourceCompanyID,
		TargetCompanyID: req.TargetCompanyID,
		IsCrossCompany:  IsCrossCompany(req.SourceCompanyID, req.TargetCompanyID),
		Assignee:        s.engine.ResolveTarget(ctx, req.Assignee),
		CreatedByID:     actor.ID,
		DueDate:         req.DueDate,
	}
	s.resolveCompanyNames(ctx, wf)

	sourceCompanyID := companyID
	assigneeCompanyID, err := companyOfTarget(ctx, s.dir, wf.Assignee)
	if err != nil {
		return nil, err
	}
	decision, err := s.gate.Evaluate(
		model.ApprovalRequestWorkflowAssignment,
		&sourceCompanyID,
		assigneeCompanyID,
		wf.Assignee,
		model.WorkflowStatusAssigned,
		actor,
	)
	if err != nil {
		return nil, err
	}
	if decision.RequiresApproval {
		pending := model.ApprovalStatePending
		wf.Status = model.WorkflowStatusPending
		wf.ApprovalStatus = &pending
	}

	err = s.txr.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.workflows.CreateWorkflowInTx(ctx, tx, wf); err != nil {
			return err
		}
		if decision.RequiresApproval {
			decision.Request.WorkflowID = &wf.ID
			if err := s.approvals.CreateApprovalRequestInTx(ctx, tx, decision.Request); err != nil {
				return err
			}
			// Record the proposed hop even though the assignment is gated.
			// From stays empty: the workflow had no assignee before.
			entry := model.RoutingHistoryEntry{
				WorkflowID:      wf.ID,
				Sequence:        1,
				To:              wf.Assignee,
				RoutedByID:      actor.ID,
				RoutedAt:        time.Now().UTC(),
				Type:            model.RoutingTypeCrossCompany,
				IsCrossCompany:  true,
				SourceCompanyID: &sourceCompanyID,
				TargetCompanyID: assigneeCompanyID,
			}
			if err := s.workflows.AppendRoutingEntriesInTx(ctx, tx, []model.RoutingHistoryEntry{entry}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatchWorkflowEffects(ctx, wf, actor, "workflow_created", "created")
	return wf, nil
}

// FindWorkflow returns a workflow with its routing history. Company
// isolation applies to reads as well.
func (s *WorkflowService) FindWorkflow(ctx context.Context, id uuid.UUID, actor *auth.Actor) (*model.Workflow, error) {
	wf, err := s.workflows.GetWorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.EnsureCompanyAccess(wf.CompanyID, actor); err != nil {
		return nil, err
	}
	return wf, nil
}

// ListWorkflows returns the actor's company workflows, paginated.
func (s *WorkflowService) ListWorkflows(ctx context.Context, actor *auth.Actor, offset, limit int) ([]model.Workflow, error) {
	return s.workflows.ListWorkflowsByCompanyID(ctx, actor.CompanyID, offset, limit)
}

// UpdateWorkflow applies a sparse patch. Routing history additions follow
// append semantics: clients resend the full array and only entries beyond
// the stored count are appended, so replaying an unchanged prefix is a
// no-op. The append runs under a row lock on the workflow, closing the race
// between two concurrent updates observing the same count.
func (s *WorkflowService) UpdateWorkflow(ctx context.Context, id uuid.UUID, patch *model.UpdateWorkflowDTO, actor *auth.Actor) (*model.Workflow, error) {
	var wf *model.Workflow
	var filed bool

	err := s.txr.InTx(ctx, func(tx *gorm.DB) error {
		var err error
		wf, err = s.workflows.GetWorkflowForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.policy.EnsureCompanyAccess(wf.CompanyID, actor); err != nil {
			return err
		}

		if patch.Title != nil {
			wf.Title = *patch.Title
		}
		if patch.Description != nil {
			wf.Description = *patch.Description
		}
		if patch.DueDate != nil {
			wf.DueDate = patch.DueDate
		}
		if patch.Status != nil {
			// Explicit external override; the only path that may regress
			// status.
			wf.Status = *patch.Status
			if *patch.Status == model.WorkflowStatusCompleted && wf.CompletedAt == nil {
				now := time.Now().UTC()
				wf.CompletedAt = &now
			}
		}

		if len(patch.RoutingHistory) > 0 {
			if err := s.appendRoutingEntriesInTx(ctx, tx, wf, patch.RoutingHistory, actor); err != nil {
				return err
			}
		}

		if patch.FiledAt != nil {
			if wf.Status != model.WorkflowStatusCompleted {
				return apperrors.NewInvalidState("filedAt may only be set on a completed workflow")
			}
			wf.FiledAt = patch.FiledAt
			filed = true
		}

		return s.workflows.SaveWorkflowInTx(ctx, tx, wf)
	})
	if err != nil {
		return nil, err
	}

	if filed {
		s.notifyGoalReminders(ctx, wf)
	}
	nonCritical("broadcast", func() error {
		return s.broadcaster.Broadcast("workflows", "updated", wf)
	})
	return wf, nil
}

// Route moves a workflow according to a caller intent: to the company
// secretary, a department, an individual, a department head, back to the
// original sender, or to the terminal filing target.
func (s *WorkflowService) Route(ctx context.Context, id uuid.UUID, req model.RouteWorkflowDTO, actor *auth.Actor) (*model.Workflow, error) {
	var wf *model.Workflow
	var filed bool

	err := s.txr.InTx(ctx, func(tx *gorm.DB) error {
		var err error
		wf, err = s.workflows.GetWorkflowForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.policy.EnsureCompanyAccess(wf.CompanyID, actor); err != nil {
			return err
		}

		target, routingType, err := s.engine.ResolveIntent(ctx, wf, req)
		if err != nil {
			return err
		}

		if routingType == model.RoutingTypeFiled {
			// Filing does not change the assignee, only timestamps it.
			now := time.Now().UTC()
			wf.FiledAt = &now
			filed = true
			entry := s.engine.BuildRoutingEntry(ctx, wf, target, actor.ID, req.Notes, model.RoutingTypeFiled)
			count, err := s.workflows.CountRoutingEntriesInTx(ctx, tx, wf.ID)
			if err != nil {
				return err
			}
			entry.Sequence = count + 1
			if err := s.workflows.AppendRoutingEntriesInTx(ctx, tx, []model.RoutingHistoryEntry{entry}); err != nil {
				return err
			}
			return s.workflows.SaveWorkflowInTx(ctx, tx, wf)
		}

		input := model.RoutingEntryInput{To: target, Type: routingType, Notes: req.Notes}
		if err := s.applyRoutingInputInTx(ctx, tx, wf, input, actor, 0); err != nil {
			return err
		}
		return s.workflows.SaveWorkflowInTx(ctx, tx, wf)
	})
	if err != nil {
		return nil, err
	}

	if filed {
		s.notifyGoalReminders(ctx, wf)
	}
	s.dispatchWorkflowEffects(ctx, wf, actor, "workflow_routed", "routed")
	return wf, nil
}

// DecideApproval applies an approve/reject decision to a pending
// cross-company approval request. Only an elevated actor of the target
// company may decide. Approval applies the originally proposed target and
// clears the approval status; rejection restores the status held before
// gating.
func (s *WorkflowService) DecideApproval(ctx context.Context, requestID uuid.UUID, req *model.DecideApprovalDTO, actor *auth.Actor) (*model.ApprovalRequest, error) {
	request, err := s.approvals.GetApprovalRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != model.ApprovalStatePending {
		return nil, apperrors.NewInvalidState("approval request is not pending")
	}
	if !actor.Elevated() {
		return nil, apperrors.NewAccessDenied("deciding approvals requires elevated privilege")
	}
	if !actor.Privileged() && actor.CompanyID != request.TargetCompanyID {
		return nil, apperrors.NewAccessDenied("only the target company may decide this request")
	}

	now := time.Now().UTC()
	err = s.txr.InTx(ctx, func(tx *gorm.DB) error {
		// Re-read under a row lock and re-verify pending: the unlocked
		// check above is a fast path only, and two concurrent decisions
		// must not both apply.
		request, err = s.approvals.GetApprovalRequestForUpdateInTx(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if request.Status != model.ApprovalStatePending {
			return apperrors.NewInvalidState("approval request is not pending")
		}
		if req.Approve {
			request.Status = model.ApprovalStateApproved
		} else {
			request.Status = model.ApprovalStateRejected
		}
		request.DecidedByID = &actor.ID
		request.DecidedAt = &now
		request.DecisionNotes = req.Notes
		if err := s.approvals.SaveApprovalRequestInTx(ctx, tx, request); err != nil {
			return err
		}

		switch {
		case request.WorkflowID != nil:
			return s.applyWorkflowDecisionInTx(ctx, tx, request, req.Approve)
		case request.ActionID != nil:
			return s.applyActionDecisionInTx(ctx, tx, request, req.Approve)
		default:
			return fmt.Errorf("approval request %s references neither workflow nor action", request.ID)
		}
	})
	if err != nil {
		return nil, err
	}

	nonCritical("notify", func() error {
		kind := "approval_rejected"
		if req.Approve {
			kind = "approval_approved"
		}
		return s.notifier.Notify(ctx, request.RequestedByID, kind, map[string]any{
			"requestId": request.ID.String(),
		})
	})
	return request, nil
}

// ListPendingApprovals returns the pending approval requests targeting the
// actor's company.
func (s *WorkflowService) ListPendingApprovals(ctx context.Context, actor *auth.Actor, offset, limit int) ([]model.ApprovalRequest, error) {
	if !actor.Elevated() {
		return nil, apperrors.NewAccessDenied("listing approvals requires elevated privilege")
	}
	return s.approvals.ListPendingByTargetCompany(ctx, actor.CompanyID, offset, limit)
}

// appendRoutingEntriesInTx applies the append-only slice of a resubmitted
// routing history array: entries up to the stored count are ignored, the
// rest are validated, gated and appended in order.
func (s *WorkflowService) appendRoutingEntriesInTx(ctx context.Context, tx *gorm.DB, wf *model.Workflow, inputs []model.RoutingEntryInput, actor *auth.Actor) error {
	count, err := s.workflows.CountRoutingEntriesInTx(ctx, tx, wf.ID)
	if err != nil {
		return err
	}
	if len(inputs) <= count {
		return nil // unchanged prefix resubmitted, nothing new
	}
	for i, input := range inputs[count:] {
		if err := s.applyRoutingInputInTx(ctx, tx, wf, input, actor, count+i); err != nil {
			return err
		}
	}
	return nil
}

// applyRoutingInputInTx validates one new routing hop against the
// workflow's lifecycle state, runs it through the cross-company gate, and
// either applies the assignment or parks it behind an approval request. The
// entry is appended either way. sequenceBase is the number of entries
// already stored before this hop.
func (s *WorkflowService) applyRoutingInputInTx(ctx context.Context, tx *gorm.DB, wf *model.Workflow, input model.RoutingEntryInput, actor *auth.Actor, sequenceBase int) error {
	if wf.Status == model.WorkflowStatusCompleted && input.Type != model.RoutingTypeFiled {
		return apperrors.NewInvalidState("completed workflows accept only filing")
	}
	if input.To.IsZero() {
		return apperrors.NewValidation("routingHistory", "routing entry is missing a target")
	}

	routingType := input.Type
	if routingType == "" {
		routingType = model.RoutingTypeManual
	}

	sourceCompanyID := wf.CompanyID
	targetCompanyID, err := companyOfTarget(ctx, s.dir, input.To)
	if err != nil {
		return err
	}

	decision, err := s.gate.Evaluate(
		model.ApprovalRequestWorkflowRouting,
		&sourceCompanyID,
		targetCompanyID,
		input.To,
		wf.Status,
		actor,
	)
	if err != nil {
		return err
	}

	entry := s.engine.BuildRoutingEntry(ctx, wf, input.To, actor.ID, input.Notes, routingType)
	if sequenceBase == 0 {
		count, err := s.workflows.CountRoutingEntriesInTx(ctx, tx, wf.ID)
		if err != nil {
			return err
		}
		sequenceBase = count
	}
	entry.Sequence = sequenceBase + 1

	if decision.RequiresApproval {
		entry.Type = model.RoutingTypeCrossCompany
		entry.IsCrossCompany = true
		entry.SourceCompanyID = &sourceCompanyID
		entry.TargetCompanyID = targetCompanyID

		pending := model.ApprovalStatePending
		wf.Status = model.WorkflowStatusPending
		wf.ApprovalStatus = &pending

		decision.Request.WorkflowID = &wf.ID
		if err := s.approvals.CreateApprovalRequestInTx(ctx, tx, decision.Request); err != nil {
			return err
		}
	} else {
		wf.Assignee = entry.To
	}

	return s.workflows.AppendRoutingEntriesInTx(ctx, tx, []model.RoutingHistoryEntry{entry})
}

func (s *WorkflowService) applyWorkflowDecisionInTx(ctx context.Context, tx *gorm.DB, request *model.ApprovalRequest, approved bool) error {
	wf, err := s.workflows.GetWorkflowForUpdateInTx(ctx, tx, *request.WorkflowID)
	if err != nil {
		return err
	}
	if approved {
		wf.Assignee = request.ProposedTarget
		wf.ApprovalStatus = nil
		wf.Status = request.PriorStatus
	} else {
		rejected := model.ApprovalStateRejected
		wf.ApprovalStatus = &rejected
		wf.Status = request.PriorStatus
	}
	return s.workflows.SaveWorkflowInTx(ctx, tx, wf)
}

func (s *WorkflowService) applyActionDecisionInTx(ctx context.Context, tx *gorm.DB, request *model.ApprovalRequest, approved bool) error {
	action, err := s.actionsRepo.GetActionForUpdateInTx(ctx, tx, *request.ActionID)
	if err != nil {
		return err
	}
	if approved {
		action.Assignee = request.ProposedTarget
		action.ApprovalStatus = nil
	} else {
		rejected := model.ApprovalStateRejected
		action.ApprovalStatus = &rejected
	}
	return s.actionsRepo.SaveActionInTx(ctx, tx, action)
}

// notifyGoalReminders notifies every resolved recipient of the workflow's
// unachieved goals that the workflow has been filed. Best effort.
func (s *WorkflowService) notifyGoalReminders(ctx context.Context, wf *model.Workflow) {
	goals, err := s.goals.GetGoalsByWorkflowID(ctx, wf.ID)
	if err != nil {
		slog.Warn("failed to load goals for filing reminders", "workflow_id", wf.ID, "error", err)
		return
	}
	for i := range goals {
		goal := &goals[i]
		if goal.Status == model.GoalStatusAchieved {
			continue
		}
		recipients, err := GoalRecipients(ctx, s.dir, goal)
		if err != nil {
			slog.Warn("failed to resolve goal reminder recipients", "goal_id", goal.ID, "error", err)
			continue
		}
		for _, userID := range recipients {
			userID := userID
			nonCritical("notify", func() error {
				return s.notifier.Notify(ctx, userID, "goal_reminder", map[string]any{
					"workflowId": wf.ID.String(),
					"goalId":     goal.ID.String(),
					"title":      goal.Title,
				})
			})
		}
	}
}

func (s *WorkflowService) dispatchWorkflowEffects(ctx context.Context, wf *model.Workflow, actor *auth.Actor, activityType, event string) {
	if wf.Assignee.Type == model.TargetTypeUser && wf.Assignee.ID != nil {
		assigneeID := *wf.Assignee.ID
		nonCritical("notify", func() error {
			return s.notifier.Notify(ctx, assigneeID, "workflow_assigned", map[string]any{
				"workflowId": wf.ID.String(),
				"title":      wf.Title,
			})
		})
	}
	nonCritical("activity", func() error {
		return s.activity.Record(ctx, actor.ID, wf.CompanyID, activityType, "workflow", wf.ID, wf.Title)
	})
	nonCritical("broadcast", func() error {
		return s.broadcaster.Broadcast("workflows", event, wf)
	})
}

// resolveCompanyNames fills the nullable source/target company display
// names. Lookup failures leave the names empty.
func (s *WorkflowService) resolveCompanyNames(ctx context.Context, wf *model.Workflow) {
	if wf.SourceCompanyID != nil {
		if name, err := s.dir.ResolveCompanyName(ctx, *wf.SourceCompanyID); err == nil {
			wf.SourceCompanyName = name
		}
	}
	if wf.TargetCompanyID != nil {
		if name, err := s.dir.ResolveCompanyName(ctx, *wf.TargetCompanyID); err == nil {
			wf.TargetCompanyName = name
		}
	}
}

// companyOfTarget resolves the company a proposed assignment target belongs
// to. System targets have no company.
func companyOfTarget(ctx context.Context, dir Directory, target model.AssignmentTarget) (*uuid.UUID, error) {
	if target.ID == nil {
		return nil, nil
	}
	var companyID uuid.UUID
	var err error
	switch target.Type {
	case model.TargetTypeUser:
		companyID, err = dir.CompanyOfUser(ctx, *target.ID)
	case model.TargetTypeDepartment:
		companyID, err = dir.CompanyOfDepartment(ctx, *target.ID)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &companyID, nil
}
