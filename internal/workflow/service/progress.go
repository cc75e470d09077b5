package service

import (
	"math"

	"github.com/OpenDocFlow/docflow/internal/workflow/model"
)

// ComputeProgress returns the workflow completion percentage for an action
// set. Interactive action types earn partial credit: document_uploaded and
// response_received count toward movement before the action is marked done.
// An empty action set is 0 percent.
func ComputeProgress(actions []model.Action) int {
	if len(actions) == 0 {
		return 0
	}
	progressed := 0
	for _, action := range actions {
		if action.Status.Progressed() {
			progressed++
		}
	}
	return int(math.Round(100 * float64(progressed) / float64(len(actions))))
}

// NextStatus returns the workflow status implied by its action set. It is
// pure and idempotent: applying it twice to the same inputs yields the same
// status and performs no mutation.
//
// A workflow becomes ready_for_review only when every action is completed and
// progress is 100; it moves from assigned to in_progress as soon as any
// progress exists. All other statuses are left unchanged.
func NextStatus(current model.WorkflowStatus, percent int, actions []model.Action) model.WorkflowStatus {
	if percent == 100 && allCompleted(actions) && current != model.WorkflowStatusCompleted {
		return model.WorkflowStatusReadyForReview
	}
	if percent > 0 && current == model.WorkflowStatusAssigned {
		return model.WorkflowStatusInProgress
	}
	return current
}

func allCompleted(actions []model.Action) bool {
	if len(actions) == 0 {
		return false
	}
	for _, action := range actions {
		if action.Status != model.ActionStatusCompleted {
			return false
		}
	}
	return true
}
