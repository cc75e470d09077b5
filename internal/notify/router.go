package notify

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/OpenDocFlow/docflow/internal/auth"
	"github.com/OpenDocFlow/docflow/utils"
)

// Router handles notification endpoints.
type Router struct {
	svc *Service
}

func NewRouter(svc *Service) *Router {
	return &Router{svc: svc}
}

// HandleList handles GET /api/v1/notifications.
func (r *Router) HandleList(c *gin.Context) {
	actor := auth.ActorFromContext(c)

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
	o, l := utils.GetPaginationParams(offset, limit)

	notifications, err := r.svc.ListForUser(c.Request.Context(), actor.ID, l, o)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "INTERNAL_ERROR", "message": err.Error()}})
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// HandleMarkRead handles POST /api/v1/notifications/:id/read.
func (r *Router) HandleMarkRead(c *gin.Context) {
	actor := auth.ActorFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION_ERROR", "message": "id must be a valid uuid"}})
		return
	}

	if err := r.svc.MarkRead(c.Request.Context(), actor.ID, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "INTERNAL_ERROR", "message": err.Error()}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked read"})
}
