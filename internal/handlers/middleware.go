package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quizdeck/assessment-service/internal/directory"
	"github.com/quizdeck/assessment-service/internal/models"
	"github.com/quizdeck/assessment-service/internal/utils"
)

// AuthMiddleware verifies the bearer token against the directory and puts
// the caller's identity on the request context.
func AuthMiddleware(dir directory.Directory, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing bearer token",
			})
			return
		}

		identity, err := dir.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			logger.Warn("Token verification failed", "error", err, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
			})
			return
		}

		c.Set(ctxUserID, identity.ID)
		c.Set(ctxUserRole, identity.Role)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not in the allowed set. Admins
// always pass.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ctxUserRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
			})
			return
		}
		role, _ := value.(models.UserRole)
		if role == models.RoleAdmin {
			c.Next()
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: "Insufficient permissions",
		})
	}
}
