package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taihuy1/task-managemet-thesis/internal/authz"
)

// RequireRoles rejects callers whose role is not in the allowed set. Role
// failures are 403, kept distinct from the 404 used for ownership failures.
func RequireRoles(allowed ...authz.Role) gin.HandlerFunc {
	allowedSet := map[authz.Role]struct{}{}
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}
	return func(c *gin.Context) {
		v, exists := c.Get("role")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "no role in context"})
			return
		}
		role, _ := v.(authz.Role)
		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "access denied"})
			return
		}
		c.Next()
	}
}
