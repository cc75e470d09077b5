package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/OpenDocFlow/docflow/internal/workflow/model"
	"github.com/OpenDocFlow/docflow/pkg/apperrors"
)

const unknownName = "Unknown"

// RoutingEngine builds routing-history entries, resolves display names and
// turns caller intents into concrete assignment targets.
type RoutingEngine struct {
	dir Directory
}

// NewRoutingEngine creates a RoutingEngine backed by the given directory.
func NewRoutingEngine(dir Directory) *RoutingEngine {
	return &RoutingEngine{dir: dir}
}

// BuildRoutingEntry constructs the next routing-history entry for a
// workflow. From is derived from the workflow's current assignee; both
// parties get their display names resolved with the raw-id and "Unknown"
// fallbacks. Sequence is assigned by the orchestrator at append time.
func (e *RoutingEngine) BuildRoutingEntry(
	ctx context.Context,
	wf *model.Workflow,
	to model.AssignmentTarget,
	routedBy uuid.UUID,
	notes string,
	routingType model.RoutingType,
) model.RoutingHistoryEntry {
	return model.RoutingHistoryEntry{
		WorkflowID: wf.ID,
		From:       e.resolveName(ctx, wf.Assignee),
		To:         e.resolveName(ctx, to),
		RoutedByID: routedBy,
		RoutedAt:   time.Now().UTC(),
		Type:       routingType,
		Notes:      notes,
	}
}

// ResolveTarget fills in a target's display name using the lookup, raw-id
// and "Unknown" fallbacks.
func (e *RoutingEngine) ResolveTarget(ctx context.Context, target model.AssignmentTarget) model.AssignmentTarget {
	return e.resolveName(ctx, target)
}

// ResolveIntent turns a routing intent into a concrete target and routing
// type. Unresolvable targets are validation errors, never silent no-ops.
// Filing is the only intent permitted on a completed workflow, and the only
// one that requires it.
func (e *RoutingEngine) ResolveIntent(ctx context.Context, wf *model.Workflow, req model.RouteWorkflowDTO) (model.AssignmentTarget, model.RoutingType, error) {
	var zero model.AssignmentTarget

	if wf.Status == model.WorkflowStatusCompleted && req.Intent != model.RouteIntentFileDocuments {
		return zero, "", apperrors.NewInvalidState("completed workflows accept only filing")
	}

	switch req.Intent {
	case model.RouteIntentSecretary:
		secretary, err := e.dir.FindSecretary(ctx, wf.CompanyID)
		if err != nil {
			return zero, "", err
		}
		return model.UserTarget(secretary.ID, secretary.Name), model.RoutingTypeManual, nil

	case model.RouteIntentDepartment:
		if req.DepartmentID == nil {
			return zero, "", apperrors.NewValidation("departmentId", "department routing requires a department id")
		}
		name, err := e.dir.ResolveDepartmentName(ctx, *req.DepartmentID)
		if err != nil {
			return zero, "", err
		}
		if name == "" {
			return zero, "", apperrors.NewValidation("departmentId", "department does not exist")
		}
		return model.DepartmentTarget(*req.DepartmentID, name), model.RoutingTypeManual, nil

	case model.RouteIntentIndividual:
		if req.UserID == nil {
			return zero, "", apperrors.NewValidation("userId", "individual routing requires a user id")
		}
		name, err := e.dir.ResolveUserName(ctx, *req.UserID)
		if err != nil {
			return zero, "", err
		}
		if name == "" {
			return zero, "", apperrors.NewValidation("userId", "user does not exist")
		}
		return model.UserTarget(*req.UserID, name), model.RoutingTypeManual, nil

	case model.RouteIntentDepartmentHead:
		if req.DepartmentID == nil {
			return zero, "", apperrors.NewValidation("departmentId", "department head routing requires a department id")
		}
		head, err := e.dir.FindDepartmentHead(ctx, *req.DepartmentID)
		if err != nil {
			return zero, "", err
		}
		return model.UserTarget(head.ID, head.Name), model.RoutingTypeManual, nil

	case model.RouteIntentOriginalSender:
		target := model.UserTarget(wf.CreatedByID, "")
		return e.resolveName(ctx, target), model.RoutingTypeManual, nil

	case model.RouteIntentFileDocuments:
		if wf.Status != model.WorkflowStatusCompleted {
			return zero, "", apperrors.NewInvalidState("only completed workflows can be filed")
		}
		return model.FiledTarget(), model.RoutingTypeFiled, nil

	default:
		return zero, "", apperrors.NewValidation("intent", fmt.Sprintf("unknown routing intent %q", req.Intent))
	}
}

// resolveName fills in a human-readable display name when it is missing or
// degenerate (equal to the raw id). Resolution order: directory lookup, raw
// id, "Unknown".
func (e *RoutingEngine) resolveName(ctx context.Context, target model.AssignmentTarget) model.AssignmentTarget {
	if target.IsZero() {
		return target
	}
	if target.Name != "" && (target.ID == nil || target.Name != target.ID.String()) {
		return target
	}
	if target.ID == nil {
		target.Name = unknownName
		return target
	}

	var name string // resolved display name, empty when the lookup misses
	var err error
	switch target.Type {
	case model.TargetTypeUser:
		name, err = e.dir.ResolveUserName(ctx, *target.ID)
	case model.TargetTypeDepartment:
		name, err = e.dir.ResolveDepartmentName(ctx, *target.ID)
	default:
		name = target.Name
	}
	if err != nil {
		slog.Warn("display name lookup failed", "target_type", target.Type, "target_id", target.ID, "error", err)
	}

	if name != "" {
		target.Name = name
	} else {
		target.Name = target.ID.String()
	}
	return target
}
