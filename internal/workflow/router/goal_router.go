package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OpenDocFlow/docflow/internal/workflow/model"
	"github.com/OpenDocFlow/docflow/internal/workflow/service"
	"github.com/OpenDocFlow/docflow/pkg/apperrors"
)

// GoalRouter handles goal endpoints.
type GoalRouter struct {
	gs *service.GoalService
}

func NewGoalRouter(gs *service.GoalService) *GoalRouter {
	return &GoalRouter{gs: gs}
}

// HandleCreateGoal handles POST /api/v1/workflows/:id/goals.
func (r *GoalRouter) HandleCreateGoal(c *gin.Context) {
	workflowID, ok := pathID(c)
	if !ok {
		return
	}
	var req model.CreateGoalDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidation("body", err.Error()))
		return
	}

	goal, err := r.gs.CreateGoal(c.Request.Context(), workflowID, &req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

// HandleListWorkflowGoals handles GET /api/v1/workflows/:id/goals.
func (r *GoalRouter) HandleListWorkflowGoals(c *gin.Context) {
	workflowID, ok := pathID(c)
	if !ok {
		return
	}
	goals, err := r.gs.ListGoalsForWorkflow(c.Request.Context(), workflowID, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

// HandleListGoals handles GET /api/v1/goals: every goal in the actor's
// company visible to the actor.
func (r *GoalRouter) HandleListGoals(c *gin.Context) {
	goals, err := r.gs.ListGoalsForUser(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

// HandleUpdateGoal handles PATCH /api/v1/goals/:id.
func (r *GoalRouter) HandleUpdateGoal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch model.UpdateGoalDTO
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, apperrors.NewValidation("body", err.Error()))
		return
	}

	goal, err := r.gs.UpdateGoal(c.Request.Context(), id, &patch, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

// HandleAchieveGoal handles POST /api/v1/goals/:id/achieve.
func (r *GoalRouter) HandleAchieveGoal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req model.AchieveGoalDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidation("body", err.Error()))
		return
	}

	goal, err := r.gs.AchieveGoal(c.Request.Context(), id, &req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

// HandleDeleteGoal handles DELETE /api/v1/goals/:id.
func (r *GoalRouter) HandleDeleteGoal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := r.gs.DeleteGoal(c.Request.Context(), id, actor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "goal deleted"})
}
