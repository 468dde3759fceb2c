package httptransport

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domainauth "mealvision-server/internal/domain/auth"
)

// Context keys populated by AuthMiddleware.
const (
	ContextOwnerID  = "owner_id"
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextToken    = "token"
)

// AuthMiddleware resolves the bearer token into a live session and stores
// the caller's identity on the request context. Requests without a live
// session never reach the handler.
func AuthMiddleware(authService *domainauth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			RespondError(c, http.StatusUnauthorized, "authentication required", nil)
			c.Abort()
			return
		}

		session, err := authService.Resolve(c.Request.Context(), token)
		if err != nil {
			RespondError(c, http.StatusUnauthorized, "invalid or expired session", nil)
			c.Abort()
			return
		}

		c.Set(ContextOwnerID, session.OwnerID)
		c.Set(ContextUserID, session.UserID)
		c.Set(ContextUsername, session.Username)
		c.Set(ContextToken, token)
		c.Next()
	}
}

// BearerToken extracts the token from the Authorization header, accepting
// both "Bearer <token>" and a bare token.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}

// OwnerID reads the authenticated owner from the request context.
func OwnerID(c *gin.Context) string {
	return c.GetString(ContextOwnerID)
}
