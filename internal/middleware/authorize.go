package middleware

import (
	"net/http"
	"strings"

	"go-timeoff/internal/shared/response"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
)

// Authorize checks the caller's role against the casbin policy for one
// object/action pair. Must run after AuthMiddleware.
func Authorize(enforcer *casbin.Enforcer, obj, act string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := strings.ToLower(strings.TrimSpace(c.GetString("role")))
		if role == "" {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Role not found in session", nil)
			c.Abort()
			return
		}

		allowed, err := enforcer.Enforce(role, obj, act)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Authorization check failed", nil)
			c.Abort()
			return
		}
		if !allowed {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to perform this action", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
