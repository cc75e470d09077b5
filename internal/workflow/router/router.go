// Package router exposes the workflow engine over REST. Handlers stay
// thin: bind, delegate to a service, translate the typed error.
package router

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/OpenDocFlow/docflow/internal/auth"
	"github.com/OpenDocFlow/docflow/pkg/apperrors"
	"github.com/OpenDocFlow/docflow/utils"
)

// Register mounts every workflow-engine route under the given group. The
// group is expected to carry the auth middleware already.
func Register(g *gin.RouterGroup, wr *WorkflowRouter, ar *ActionRouter, gr *GoalRouter) {
	g.POST("/workflows", wr.HandleCreateWorkflow)
	g.GET("/workflows", wr.HandleListWorkflows)
	g.GET("/workflows/:id", wr.HandleGetWorkflow)
	g.PATCH("/workflows/:id", wr.HandleUpdateWorkflow)
	g.POST("/workflows/:id/route", wr.HandleRouteWorkflow)

	g.GET("/approvals", wr.HandleListPendingApprovals)
	g.POST("/approvals/:id/decision", wr.HandleDecideApproval)

	g.POST("/actions", ar.HandleCreateAction)
	g.GET("/actions/:id", ar.HandleGetAction)
	g.PATCH("/actions/:id", ar.HandleUpdateAction)

	g.POST("/workflows/:id/goals", gr.HandleCreateGoal)
	g.GET("/workflows/:id/goals", gr.HandleListWorkflowGoals)
	g.GET("/goals", gr.HandleListGoals)
	g.PATCH("/goals/:id", gr.HandleUpdateGoal)
	g.POST("/goals/:id/achieve", gr.HandleAchieveGoal)
	g.DELETE("/goals/:id", gr.HandleDeleteGoal)
}

func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.GetHTTPStatus(err), gin.H{
		"error": gin.H{
			"code":    apperrors.GetCode(err),
			"message": err.Error(),
		},
	})
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.NewValidation("id", "must be a valid uuid"))
		return uuid.Nil, false
	}
	return id, true
}

func actor(c *gin.Context) *auth.Actor {
	return auth.ActorFromContext(c)
}

func paginationParams(c *gin.Context) (int, int) {
	var offset, limit *int
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			offset = &v
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = &v
		}
	}
	return utils.GetPaginationParams(offset, limit)
}
