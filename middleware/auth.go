package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Anaqqa/supfile/models"
	"github.com/Anaqqa/supfile/services"
	"github.com/Anaqqa/supfile/utils"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID = "user_id"
	ContextUser   = "user"
)

// TokenResolver turns a bearer token into an active user.
type TokenResolver interface {
	ResolveUser(ctx context.Context, token string) (models.User, error)
}

func AuthMiddleware(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			utils.Error(c, http.StatusUnauthorized, "malformed authorization header")
			c.Abort()
			return
		}

		user, err := resolver.ResolveUser(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			status := http.StatusUnauthorized
			message := "invalid or expired token"
			if !services.IsKind(err, services.KindUnauthorized) {
				status = http.StatusInternalServerError
				message = "failed to authenticate request"
			}
			utils.Error(c, status, message)
			c.Abort()
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUser, user)
		c.Next()
	}
}
