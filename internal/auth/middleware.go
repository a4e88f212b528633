package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pixelframe/client-portal/client-portal-backend/internal/users"
)

const (
	contextUserID = "auth.user_id"
	contextRole   = "auth.role"
)

// RequireAuth extracts and verifies the bearer token, storing the caller
// identity in the request context.
func RequireAuth(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		userID, role, err := service.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		Identify(c, userID, role)
		c.Next()
	}
}

// Identify stores the caller identity on the request context. RequireAuth
// calls it after verifying the token; handler tests call it directly.
func Identify(c *gin.Context, userID uuid.UUID, role string) {
	c.Set(contextUserID, userID)
	c.Set(contextRole, role)
}

// CurrentUserID returns the authenticated caller's id.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(contextUserID)
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

// IsStaff reports whether the caller carries the staff role.
func IsStaff(c *gin.Context) bool {
	value, ok := c.Get(contextRole)
	if !ok {
		return false
	}
	role, ok := value.(string)
	return ok && role == users.RoleStaff
}
