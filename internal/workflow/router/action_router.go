package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OpenDocFlow/docflow/internal/workflow/model"
	"github.com/OpenDocFlow/docflow/internal/workflow/service"
	"github.com/OpenDocFlow/docflow/pkg/apperrors"
)

// ActionRouter handles action endpoints.
type ActionRouter struct {
	as *service.ActionService
}

func NewActionRouter(as *service.ActionService) *ActionRouter {
	return &ActionRouter{as: as}
}

// HandleCreateAction handles POST /api/v1/actions.
func (r *ActionRouter) HandleCreateAction(c *gin.Context) {
	var req model.CreateActionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidation("body", err.Error()))
		return
	}

	action, err := r.as.CreateAction(c.Request.Context(), &req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, action)
}

// HandleGetAction handles GET /api/v1/actions/:id.
func (r *ActionRouter) HandleGetAction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	action, err := r.as.FindAction(c.Request.Context(), id, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, action)
}

// HandleUpdateAction handles PATCH /api/v1/actions/:id.
func (r *ActionRouter) HandleUpdateAction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch model.UpdateActionDTO
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, apperrors.NewValidation("body", err.Error()))
		return
	}

	action, err := r.as.UpdateAction(c.Request.Context(), id, &patch, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, action)
}
