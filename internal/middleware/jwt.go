package middleware

import (
	"errors"
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"smart_wallet/internal/domain"  // Importing domain models
	"smart_wallet/internal/session" // Session lifecycle

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Context keys set by JWTAuthMiddleware
const (
	SessionIDKey = "sessionID" // Session of the current request
	UserKey      = "user"      // domain.User restored from the session
	UsernameKey  = "username"  // Owner key for every record the request touches
)

// JWTAuthMiddleware validates the bearer token, restores its session and counts the request as activity
func JWTAuthMiddleware(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")             // Extract the token string
		id, user, err := sessions.Restore(c.Request.Context(), tokenStr) // Resolve token to session and refresh it
		if errors.Is(err, session.ErrExpired) {
			// Expired, destroyed or unreadable sessions all look signed out
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired, please sign in again"})
			return
		}
		if err != nil {
			logrus.WithError(err).Error("Failed to restore session")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to restore session"})
			return
		}
		c.Set(SessionIDKey, id)           // Store session ID in context
		c.Set(UserKey, user)              // Store user in context
		c.Set(UsernameKey, user.Username) // Store owner key in context
		c.Next()                          // Proceed to the next handler
	}
}

// CurrentUser returns the user stored by JWTAuthMiddleware
func CurrentUser(c *gin.Context) (domain.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return domain.User{}, false
	}
	u, ok := v.(domain.User)
	return u, ok
}
