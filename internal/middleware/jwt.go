package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/team-calendar/internal/models"
	appErrors "github.com/noah-isme/team-calendar/pkg/errors"
	"github.com/noah-isme/team-calendar/pkg/logger"
	"github.com/noah-isme/team-calendar/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// TokenValidator resolves an access token into claims.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid, unrevoked access token.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		authenticate(c, validator)
	}
}

// OptionalJWT lets anonymous requests through but still rejects a bad token,
// so handlers can rely on claims being either absent or valid.
func OptionalJWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		authenticate(c, validator)
	}
}

func authenticate(c *gin.Context, validator TokenValidator) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
		c.Abort()
		return
	}

	claims, err := validator.ValidateToken(c.Request.Context(), strings.TrimSpace(parts[1]))
	if err != nil {
		response.Error(c, err)
		c.Abort()
		return
	}

	c.Set(ContextUserKey, claims)
	c.Set(logger.UsernameKey, claims.Username)
	c.Next()
}
