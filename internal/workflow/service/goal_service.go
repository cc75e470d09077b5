package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/OpenDocFlow/docflow/internal/auth"
	"github.com/OpenDocFlow/docflow/internal/workflow/model"
	"github.com/OpenDocFlow/docflow/pkg/apperrors"
)

// GoalService orchestrates post-completion goals: creation gating,
// visibility-filtered listing, achievement and deletion.
type GoalService struct {
	workflows   WorkflowRepository
	goals       GoalRepository
	policy      Policy
	dir         Directory
	notifier    Notifier
	activity    ActivityLogger
	broadcaster Broadcaster
}

// NewGoalService creates a GoalService.
func NewGoalService(
	workflows WorkflowRepository,
	goals GoalRepository,
	dir Directory,
	notifier Notifier,
	activity ActivityLogger,
	broadcaster Broadcaster,
) *GoalService {
	return &GoalService{
		workflows:   workflows,
		goals:       goals,
		dir:         dir,
		notifier:    notifier,
		activity:    activity,
		broadcaster: broadcaster,
	}
}

// CreateGoal creates a goal under a workflow. Goals exist only on workflows
// that are ready for review or completed.
func (s *GoalService) CreateGoal(ctx context.Context, workflowID uuid.UUID, req *model.CreateGoalDTO, actor *auth.Actor) (*model.Goal, error) {
	if req.Title == "" {
		return nil, apperrors.NewValidation("title", "title is required")
	}
	switch req.AssignedToType {
	case model.GoalAssigneeUser, model.GoalAssigneeDepartment:
		if req.AssignedToName == "" && req.AssignedToID == nil {
			return nil, apperrors.NewValidation("assignedTo", "goal assignee is incomplete")
		}
	case model.GoalAssigneeAllParticipants:
		// no target reference required
	default:
		return nil, apperrors.NewValidation("assignedToType", "unknown goal assignee type")
	}

	wf, err := s.workflows.GetWorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.EnsureCompanyAccess(wf.CompanyID, actor); err != nil {
		return nil, err
	}
	if !wf.AcceptsGoals() {
		return nil, apperrors.NewInvalidState("goals require a workflow that is ready for review or completed")
	}

	goal := &model.Goal{
		WorkflowID:     wf.ID,
		CompanyID:      wf.CompanyID,
		Title:          req.Title,
		Description:    req.Description,
		Status:         model.GoalStatusPending,
		AssignedToType: req.AssignedToType,
		AssignedToID:   req.AssignedToID,
		AssignedToName: req.AssignedToName,
		AssignedUsers:  req.AssignedUsers,
		DueDate:        req.DueDate,
		CreatedByID:    actor.ID,
	}
	if err := s.goals.CreateGoal(ctx, goal); err != nil {
		return nil, err
	}

	s.dispatchGoalEffects(ctx, goal, actor, "goal_created", "created")
	return goal, nil
}

// UpdateGoal applies a sparse patch to a goal.
func (s *GoalService) UpdateGoal(ctx context.Context, id uuid.UUID, patch *model.UpdateGoalDTO, actor *auth.Actor) (*model.Goal, error) {
	goal, err := s.goals.GetGoalByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.EnsureCompanyAccess(goal.CompanyID, actor); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		goal.Title = *patch.Title
	}
	if patch.Description != nil {
		goal.Description = *patch.Description
	}
	if patch.Status != nil {
		goal.Status = *patch.Status
	}
	if patch.DueDate != nil {
		goal.DueDate = patch.DueDate
	}

	if err := s.goals.SaveGoal(ctx, goal); err != nil {
		return nil, err
	}
	s.dispatchGoalEffects(ctx, goal, actor, "goal_updated", "updated")
	return goal, nil
}

// AchieveGoal stamps the achievement metadata. Visibility and authorization
// have been confirmed by the caller layer; the stamp itself is
// unconditional.
func (s *GoalService) AchieveGoal(ctx context.Context, id uuid.UUID, req *model.AchieveGoalDTO, actor *auth.Actor) (*model.Goal, error) {
	goal, err := s.goals.GetGoalByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.EnsureCompanyAccess(goal.CompanyID, actor); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	achievedBy := actor.ID
	goal.Status = model.GoalStatusAchieved
	goal.AchievedAt = &now
	goal.AchievedByID = &achievedBy
	goal.AchievementNotes = req.Notes

	if err := s.goals.SaveGoal(ctx, goal); err != nil {
		return nil, err
	}
	s.dispatchGoalEffects(ctx, goal, actor, "goal_achieved", "achieved")
	return goal, nil
}

// DeleteGoal removes a goal.
func (s *GoalService) DeleteGoal(ctx context.Context, id uuid.UUID, actor *auth.Actor) error {
	goal, err := s.goals.GetGoalByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.EnsureCompanyAccess(goal.CompanyID, actor); err != nil {
		return err
	}
	if err := s.goals.DeleteGoal(ctx, goal.ID); err != nil {
		return err
	}
	s.dispatchGoalEffects(ctx, goal, actor, "goal_deleted", "deleted")
	return nil
}

// ListGoalsForWorkflow returns the workflow's goals the actor may see.
func (s *GoalService) ListGoalsForWorkflow(ctx context.Context, workflowID uuid.UUID, actor *auth.Actor) ([]model.Goal, error) {
	wf, err := s.workflows.GetWorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.EnsureCompanyAccess(wf.CompanyID, actor); err != nil {
		return nil, err
	}

	goals, err := s.goals.GetGoalsByWorkflowID(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	return s.filterVisible(goals, wf, wf.RoutingHistory, actor), nil
}

// ListGoalsForUser returns every goal within the actor's company that is
// visible to the actor.
func (s *GoalService) ListGoalsForUser(ctx context.Context, actor *auth.Actor) ([]model.Goal, error) {
	goals, err := s.goals.GetGoalsByCompanyID(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}

	// Visibility depends on the parent workflow; fetch each distinct parent
	// once.
	workflowCache := make(map[uuid.UUID]*model.Workflow)
	visible := make([]model.Goal, 0, len(goals))
	for i := range goals {
		goal := &goals[i]
		wf, ok := workflowCache[goal.WorkflowID]
		if !ok {
			wf, err = s.workflows.GetWorkflowByID(ctx, goal.WorkflowID)
			if err != nil {
				slog.Warn("failed to load workflow for goal visibility", "goal_id", goal.ID, "error", err)
				continue
			}
			workflowCache[goal.WorkflowID] = wf
		}
		if s.policy.CanViewGoal(goal, wf, wf.RoutingHistory, actor) {
			visible = append(visible, *goal)
		}
	}
	return visible, nil
}

func (s *GoalService) filterVisible(goals []model.Goal, wf *model.Workflow, history []model.RoutingHistoryEntry, actor *auth.Actor) []model.Goal {
	visible := make([]model.Goal, 0, len(goals))
	for i := range goals {
		if s.policy.CanViewGoal(&goals[i], wf, history, actor) {
			visible = append(visible, goals[i])
		}
	}
	return visible
}

func (s *GoalService) dispatchGoalEffects(ctx context.Context, goal *model.Goal, actor *auth.Actor, activityType, event string) {
	nonCritical("activity", func() error {
		return s.activity.Record(ctx, actor.ID, goal.CompanyID, activityType, "goal", goal.ID, goal.Title)
	})
	nonCritical("broadcast", func() error {
		return s.broadcaster.Broadcast("goals", event, goal)
	})
}

// GoalRecipients resolves the user ids a goal's reminders go to: the direct
// user assignee, every user in the assigned-users overlay, members of
// overlay departments, and the goal's creator.
func GoalRecipients(ctx context.Context, dir Directory, goal *model.Goal) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var recipients []uuid.UUID
	add := func(id uuid.UUID) {
		if id != uuid.Nil && !seen[id] {
			seen[id] = true
			recipients = append(recipients, id)
		}
	}

	add(goal.CreatedByID)
	if goal.AssignedToType == model.GoalAssigneeUser && goal.AssignedToID != nil {
		add(*goal.AssignedToID)
	}
	if goal.AssignedToType == model.GoalAssigneeDepartment && goal.AssignedToID != nil {
		members, err := dir.UsersInDepartment(ctx, *goal.AssignedToID)
		if err != nil {
			return nil, err
		}
		for _, member := range members {
			add(member.ID)
		}
	}
	for _, assignee := range goal.AssignedUsers {
		if assignee.ID == nil {
			continue
		}
		switch assignee.Type {
		case model.TargetTypeUser:
			add(*assignee.ID)
		case model.TargetTypeDepartment:
			members, err := dir.UsersInDepartment(ctx, *assignee.ID)
			if err != nil {
				return nil, err
			}
			for _, member := range members {
				add(member.ID)
			}
		}
	}
	return recipients, nil
}
