package api

import (
	"net/http" // HTTP status codes

	"smart_wallet/internal/account"    // Account service
	"smart_wallet/internal/middleware" // Context keys
	"smart_wallet/internal/session"    // Session lifecycle

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// GetProfileHandler returns the stored record of the signed-in user
func GetProfileHandler(accounts *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := accounts.GetUser(c.Request.Context(), owner(c))
		if err != nil {
			respondError(c, err, "User not found", "Failed to fetch profile")
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// UpdateProfileHandler edits the profile; a new username moves every owned record with it
func UpdateProfileHandler(accounts *account.Service, sessions *session.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req account.ProfileUpdate // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		ctx := c.Request.Context()
		current := owner(c)
		user, moved, err := accounts.UpdateProfile(ctx, current, req)
		if err != nil {
			respondError(c, err, "User not found", "Failed to update profile")
			return
		}
		sessionID := c.GetString(middleware.SessionIDKey)
		if moved == nil {
			// Keep the session pointing at the stored record
			if err := sessions.Update(ctx, sessionID, user); err != nil {
				respondError(c, err, "Session not found", "Failed to refresh session")
				return
			}
			c.JSON(http.StatusOK, gin.H{"user": user})
			return
		}
		// This session follows the new name, any other one of the old name ends
		if err := sessions.Rename(ctx, sessionID, current, user); err != nil {
			respondError(c, err, "Session not found", "Failed to refresh session")
			return
		}
		invalidateDashboard(ctx, rdb, current) // Old owner key no longer has records
		invalidateUsers(ctx, rdb)
		c.JSON(http.StatusOK, gin.H{"user": user, "moved": moved})
	}
}
