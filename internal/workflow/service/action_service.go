package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenDocFlow/docflow/internal/auth"
	"github.com/OpenDocFlow/docflow/internal/workflow/model"
	"github.com/OpenDocFlow/docflow/pkg/apperrors"
)

// ActionService orchestrates action creation and updates, including the
// completion guard and progress propagation onto the parent workflow.
type ActionService struct {
	txr         TxRunner
	workflows   WorkflowRepository
	actions     ActionRepository
	approvals   ApprovalRequestRepository
	engine      *RoutingEngine
	gate        ApprovalGate
	policy      Policy
	dir         Directory
	notifier    Notifier
	activity    ActivityLogger
	broadcaster Broadcaster
}

// NewActionService creates an ActionService.
func NewActionService(
	txr TxRunner,
	workflows WorkflowRepository,
	actions ActionRepository,
	approvals ApprovalRequestRepository,
	engine *RoutingEngine,
	dir Directory,
	notifier Notifier,
	activity ActivityLogger,
	broadcaster Broadcaster,
) *ActionService {
	return &ActionService{
		txr:         txr,
		workflows:   workflows,
		actions:     actions,
		approvals:   approvals,
		engine:      engine,
		dir:         dir,
		notifier:    notifier,
		activity:    activity,
		broadcaster: broadcaster,
	}
}

// CreateAction creates an action under a workflow. The action inherits the
// workflow's company id at creation; cross-company assignments run through
// the approval gate.
func (s *ActionService) CreateAction(ctx context.Context, req *model.CreateActionDTO, actor *auth.Actor) (*model.Action, error) {
	if req.Title == "" {
		return nil, apperrors.NewValidation("title", "title is required")
	}
	if req.Type != model.ActionTypeRegular && req.Type != model.ActionTypeDocumentUpload && req.Type != model.ActionTypeRequestResponse {
		return nil, apperrors.NewValidation("type", "unknown action type")
	}
	if req.Assignee.Type == "" || (req.Assignee.ID == nil && req.Assignee.Name == "") {
		return nil, apperrors.NewValidation("assignee", "action assignee is incomplete")
	}

	wf, err := s.workflows.GetWorkflowByID(ctx, req.WorkflowID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.EnsureCompanyAccess(wf.CompanyID, actor); err != nil {
		return nil, err
	}

	action := &model.Action{
		WorkflowID:      wf.ID,
		CompanyID:       wf.CompanyID,
		Title:           req.Title,
		Description:     req.Description,
		Type:            req.Type,
		Status:          model.ActionStatusPending,
		Assignee:        s.engine.ResolveTarget(ctx, req.Assignee),
		DueDate:         req.DueDate,
		SourceCompanyID: wf.SourceCompanyID,
		TargetCompanyID: wf.TargetCompanyID,
	}

	sourceCompanyID := wf.CompanyID
	assigneeCompanyID, err := companyOfTarget(ctx, s.dir, action.Assignee)
	if err != nil {
		return nil, err
	}
	decision, err := s.gate.Evaluate(
		model.ApprovalRequestActionAssignment,
		&sourceCompanyID,
		assigneeCompanyID,
		action.Assignee,
		wf.Status,
		actor,
	)
	if err != nil {
		return nil, err
	}
	if decision.RequiresApproval {
		pending := model.ApprovalStatePending
		action.ApprovalStatus = &pending
		action.IsCrossCompany = true
		action.SourceCompanyID = &sourceCompanyID
		action.TargetCompanyID = assigneeCompanyID
	}

	err = s.txr.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.actions.CreateActionInTx(ctx, tx, action); err != nil {
			return err
		}
		if decision.RequiresApproval {
			decision.Request.ActionID = &action.ID
			if err := s.approvals.CreateApprovalRequestInTx(ctx, tx, decision.Request); err != nil {
				return err
			}
			action.ApprovalRequestID = &decision.Request.ID
			return s.actions.SaveActionInTx(ctx, tx, action)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatchActionEffects(ctx, action, actor, "action_created", "created")
	return action, nil
}

// FindAction returns an action. Company isolation is the only precondition
// for reading an action's detail.
func (s *ActionService) FindAction(ctx context.Context, id uuid.UUID, actor *auth.Actor) (*model.Action, error) {
	action, err := s.actions.GetActionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.EnsureCompanyAccess(action.CompanyID, actor); err != nil {
		return nil, err
	}
	return action, nil
}

// UpdateAction applies a sparse patch to an action. A transition to
// completed must pass the authorization guard unless the actor is
// privileged. After any status change the parent workflow's derived
// (status, progress) pair is recomputed under the same row lock; a failure
// to persist the derived pair is logged, never raised, so the action update
// itself still succeeds.
func (s *ActionService) UpdateAction(ctx context.Context, id uuid.UUID, patch *model.UpdateActionDTO, actor *auth.Actor) (*model.Action, error) {
	var action *model.Action

	err := s.txr.InTx(ctx, func(tx *gorm.DB) error {
		// The unlocked read only names the parent. Lock the parent first so
		// concurrent completions of sibling actions serialize their progress
		// propagation, then re-read the action under its own row lock: the
		// patch must apply to the post-lock copy or concurrent updates
		// overwrite each other.
		peek, err := s.actions.GetActionByID(ctx, id)
		if err != nil {
			return err
		}

		wf, err := s.workflows.GetWorkflowForUpdateInTx(ctx, tx, peek.WorkflowID)
		if err != nil {
			return err
		}
		action, err = s.actions.GetActionForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.policy.EnsureCompanyAccess(action.CompanyID, actor); err != nil {
			return err
		}

		if patch.Title != nil {
			action.Title = *patch.Title
		}
		if patch.Description != nil {
			action.Description = *patch.Description
		}
		if patch.DueDate != nil {
			action.DueDate = patch.DueDate
		}
		if patch.ResolutionNotes != nil {
			action.ResolutionNotes = *patch.ResolutionNotes
		}
		if patch.UploadedFileName != nil {
			action.UploadedFileName = *patch.UploadedFileName
		}
		if patch.ResponseText != nil {
			action.ResponseText = *patch.ResponseText
		}

		statusChanged := patch.Status != nil && *patch.Status != action.Status
		if statusChanged {
			if err := s.applyStatusChange(ctx, tx, action, wf, *patch.Status, actor); err != nil {
				return err
			}
		}

		if err := s.actions.SaveActionInTx(ctx, tx, action); err != nil {
			return err
		}

		if statusChanged {
			s.propagateProgressInTx(ctx, tx, wf)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatchActionEffects(ctx, action, actor, "action_updated", "updated")
	return action, nil
}

func (s *ActionService) applyStatusChange(ctx context.Context, tx *gorm.DB, action *model.Action, wf *model.Workflow, next model.ActionStatus, actor *auth.Actor) error {
	now := time.Now().UTC()
	switch next {
	case model.ActionStatusCompleted:
		if !actor.Privileged() {
			history, err := s.workflows.GetRoutingHistoryInTx(ctx, tx, wf.ID)
			if err != nil {
				return err
			}
			if !s.policy.CanCompleteAction(action, wf, history, actor) {
				return apperrors.NewAccessDenied("actor may not complete this action")
			}
		}
		action.CompletedAt = &now
		if !actor.IsSystem() {
			completedBy := actor.ID
			action.CompletedByID = &completedBy
		}
	case model.ActionStatusDocumentUploaded:
		action.UploadedAt = &now
	case model.ActionStatusResponseReceived:
		action.RespondedAt = &now
	case model.ActionStatusPending, model.ActionStatusInProgress:
		// no stamping
	default:
		return apperrors.NewValidation("status", "unknown action status")
	}
	action.Status = next
	return nil
}

// propagateProgressInTx recomputes the workflow's derived (status, progress)
// pair from its current action set and persists it when it changed.
// Failures are logged, not raised: the action update that triggered the
// recompute must still succeed.
func (s *ActionService) propagateProgressInTx(ctx context.Context, tx *gorm.DB, wf *model.Workflow) {
	actions, err := s.actions.GetActionsByWorkflowIDInTx(ctx, tx, wf.ID)
	if err != nil {
		slog.Warn("failed to load actions for progress propagation", "workflow_id", wf.ID, "error", err)
		return
	}

	percent := ComputeProgress(actions)
	next := NextStatus(wf.Status, percent, actions)
	if percent == wf.Progress && next == wf.Status {
		return
	}

	wf.Progress = percent
	wf.Status = next
	if err := s.workflows.SaveWorkflowInTx(ctx, tx, wf); err != nil {
		slog.Warn("failed to persist workflow progress", "workflow_id", wf.ID, "error", err)
	}
}

func (s *ActionService) dispatchActionEffects(ctx context.Context, action *model.Action, actor *auth.Actor, activityType, event string) {
	if action.Assignee.Type == model.TargetTypeUser && action.Assignee.ID != nil {
		assigneeID := *action.Assignee.ID
		nonCritical("notify", func() error {
			return s.notifier.Notify(ctx, assigneeID, "action_"+event, map[string]any{
				"actionId":   action.ID.String(),
				"workflowId": action.WorkflowID.String(),
				"title":      action.Title,
			})
		})
	}
	nonCritical("activity", func() error {
		return s.activity.Record(ctx, actor.ID, action.CompanyID, activityType, "action", action.ID, action.Title)
	})
	nonCritical("broadcast", func() error {
		return s.broadcaster.Broadcast("actions", event, action)
	})
}
