package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireAuth validates the bearer token and injects the resolved Actor into
// the gin context. Requests without a valid token are rejected with 401.
func RequireAuth(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "no authorization token provided",
				"code":  "UNAUTHORIZED",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization header format",
				"code":  "UNAUTHORIZED",
			})
			return
		}

		userID, err := svc.issuer.Verify(parts[1])
		if err != nil {
			slog.Debug("token verification failed", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
				"code":  "UNAUTHORIZED",
			})
			return
		}

		actor, err := svc.ResolveActor(c.Request.Context(), userID)
		if err != nil {
			slog.Warn("failed to resolve actor", "user_id", userID, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unknown user",
				"code":  "UNAUTHORIZED",
			})
			return
		}

		c.Set(ActorContextKey, actor)
		c.Next()
	}
}

// ActorFromContext returns the Actor stored by RequireAuth, or nil.
func ActorFromContext(c *gin.Context) *Actor {
	value, exists := c.Get(ActorContextKey)
	if !exists {
		return nil
	}
	actor, ok := value.(*Actor)
	if !ok {
		return nil
	}
	return actor
}
