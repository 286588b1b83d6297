package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/team-calendar/internal/models"
	appErrors "github.com/noah-isme/team-calendar/pkg/errors"
	"github.com/noah-isme/team-calendar/pkg/response"
)

// RequireManager lets only managers through. With allowSelf, a non-manager
// may still reach routes whose :username parameter names them.
func RequireManager(allowSelf bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if claims.IsManager {
			c.Next()
			return
		}

		if allowSelf {
			if target := c.Param("username"); target != "" && target == claims.Username {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "manager role required"))
		c.Abort()
	}
}
