package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OpenDocFlow/docflow/internal/workflow/model"
	"github.com/OpenDocFlow/docflow/internal/workflow/service"
	"github.com/OpenDocFlow/docflow/pkg/apperrors"
)

// WorkflowRouter handles workflow and approval endpoints.
type WorkflowRouter struct {
	ws *service.WorkflowService
}

func NewWorkflowRouter(ws *service.WorkflowService) *WorkflowRouter {
	return &WorkflowRouter{ws: ws}
}

// HandleCreateWorkflow handles POST /api/v1/workflows.
func (r *WorkflowRouter) HandleCreateWorkflow(c *gin.Context) {
	var req model.CreateWorkflowDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidation("body", err.Error()))
		return
	}

	wf, err := r.ws.CreateWorkflow(c.Request.Context(), &req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wf)
}

// HandleListWorkflows handles GET /api/v1/workflows.
func (r *WorkflowRouter) HandleListWorkflows(c *gin.Context) {
	offset, limit := paginationParams(c)
	workflows, err := r.ws.ListWorkflows(c.Request.Context(), actor(c), offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, workflows)
}

// HandleGetWorkflow handles GET /api/v1/workflows/:id.
func (r *WorkflowRouter) HandleGetWorkflow(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	wf, err := r.ws.FindWorkflow(c.Request.Context(), id, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wf)
}

// HandleUpdateWorkflow handles PATCH /api/v1/workflows/:id.
func (r *WorkflowRouter) HandleUpdateWorkflow(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch model.UpdateWorkflowDTO
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, apperrors.NewValidation("body", err.Error()))
		return
	}

	wf, err := r.ws.UpdateWorkflow(c.Request.Context(), id, &patch, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wf)
}

// HandleRouteWorkflow handles POST /api/v1/workflows/:id/route.
func (r *WorkflowRouter) HandleRouteWorkflow(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req model.RouteWorkflowDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidation("body", err.Error()))
		return
	}

	wf, err := r.ws.Route(c.Request.Context(), id, req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wf)
}

// HandleListPendingApprovals handles GET /api/v1/approvals.
func (r *WorkflowRouter) HandleListPendingApprovals(c *gin.Context) {
	offset, limit := paginationParams(c)
	requests, err := r.ws.ListPendingApprovals(c.Request.Context(), actor(c), offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

// HandleDecideApproval handles POST /api/v1/approvals/:id/decision.
func (r *WorkflowRouter) HandleDecideApproval(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req model.DecideApprovalDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidation("body", err.Error()))
		return
	}

	request, err := r.ws.DecideApproval(c.Request.Context(), id, &req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}
