package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OpenDocFlow/docflow/pkg/apperrors"
)

// Router handles authentication endpoints.
type Router struct {
	svc *Service
}

func NewRouter(svc *Service) *Router {
	return &Router{svc: svc}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// HandleLogin handles POST /api/v1/auth/login.
func (r *Router) HandleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondAuthError(c, apperrors.NewValidation("body", err.Error()))
		return
	}

	token, actor, err := r.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"actor": actor,
	})
}

// HandleMe handles GET /api/v1/auth/me. Requires the auth middleware.
func (r *Router) HandleMe(c *gin.Context) {
	c.JSON(http.StatusOK, ActorFromContext(c))
}

func respondAuthError(c *gin.Context, err error) {
	c.JSON(apperrors.GetHTTPStatus(err), gin.H{
		"error": gin.H{
			"code":    apperrors.GetCode(err),
			"message": err.Error(),
		},
	})
}
