package service

import (
	"strings"

	"github.com/google/uuid"

	"github.com/OpenDocFlow/docflow/internal/auth"
	"github.com/OpenDocFlow/docflow/internal/workflow/model"
	"github.com/OpenDocFlow/docflow/pkg/apperrors"
)

// Policy centralizes the permission predicates shared by the action
// completion guard and the goal visibility resolver: company isolation and
// workflow participation.
type Policy struct{}

// EnsureCompanyAccess rejects actors whose company differs from the
// resource's company, unless the actor holds the privileged override role.
// Company isolation precedes every other permission rule.
func (Policy) EnsureCompanyAccess(companyID uuid.UUID, actor *auth.Actor) error {
	if actor.Privileged() {
		return nil
	}
	if actor.CompanyID != companyID {
		return apperrors.NewAccessDenied("resource belongs to another company")
	}
	return nil
}

// IsParticipant reports whether the actor created the workflow, currently
// holds it, or has historically held it via routing. Department parties in
// the routing history match through the actor's department memberships, by
// id or by case-insensitive name.
func (p Policy) IsParticipant(wf *model.Workflow, history []model.RoutingHistoryEntry, actor *auth.Actor) bool {
	if wf.CreatedByID == actor.ID {
		return true
	}
	if wf.Assignee.IsUser(actor.ID) {
		return true
	}
	for _, entry := range history {
		if p.targetMatchesActor(entry.From, actor) || p.targetMatchesActor(entry.To, actor) {
			return true
		}
	}
	return false
}

// CanCompleteAction decides whether the actor may mark the action completed.
// Callers must have passed EnsureCompanyAccess first. Privileged actors
// (master role, unauthenticated-system) bypass the guard entirely.
func (p Policy) CanCompleteAction(action *model.Action, wf *model.Workflow, history []model.RoutingHistoryEntry, actor *auth.Actor) bool {
	if actor.Privileged() {
		return true
	}
	if action.Assignee.IsUser(actor.ID) {
		return true
	}
	if action.Assignee.Type == model.TargetTypeDepartment && p.actorInDepartment(action.Assignee, actor) {
		return true
	}
	return p.IsParticipant(wf, history, actor)
}

// CanViewGoal decides whether the actor may see a post-completion goal.
func (p Policy) CanViewGoal(goal *model.Goal, wf *model.Workflow, history []model.RoutingHistoryEntry, actor *auth.Actor) bool {
	if goal.CreatedByID == actor.ID {
		return true
	}
	if goal.AssignedToType == model.GoalAssigneeAllParticipants && p.IsParticipant(wf, history, actor) {
		return true
	}
	if goal.AssignedToType == model.GoalAssigneeUser && goal.AssignedToID != nil && *goal.AssignedToID == actor.ID {
		return true
	}
	for _, assignee := range goal.AssignedUsers {
		switch assignee.Type {
		case model.TargetTypeUser:
			if assignee.ID != nil && *assignee.ID == actor.ID {
				return true
			}
		case model.TargetTypeDepartment:
			target := model.AssignmentTarget{Type: assignee.Type, ID: assignee.ID, Name: assignee.Name}
			if p.actorInDepartment(target, actor) {
				return true
			}
		}
	}
	return false
}

// actorInDepartment matches a department target against the actor's resolved
// departments. The department UUID is canonical; the case-insensitive name
// compare is the single sanctioned fallback for entries recorded without an
// id.
func (Policy) actorInDepartment(target model.AssignmentTarget, actor *auth.Actor) bool {
	if target.Type != model.TargetTypeDepartment {
		return false
	}
	if target.ID != nil && actor.InDepartment(*target.ID) {
		return true
	}
	if target.Name == "" {
		return false
	}
	for _, name := range actor.DepartmentNames {
		if strings.EqualFold(name, target.Name) {
			return true
		}
	}
	return false
}

func (p Policy) targetMatchesActor(target model.AssignmentTarget, actor *auth.Actor) bool {
	if target.IsUser(actor.ID) {
		return true
	}
	return p.actorInDepartment(target, actor)
}
