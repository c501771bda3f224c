package api

import (
	"net/http" // HTTP status codes
	"time"     // Time durations

	"smart_wallet/internal/account"    // Account service
	"smart_wallet/internal/middleware" // Context keys
	"smart_wallet/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

const adminUsersKey = "admin:users" // Cache key of the user listing

// UserAdminResponse represents the user data returned to admin
type UserAdminResponse struct {
	Username   string `json:"username"`   // Username
	Role       string `json:"role"`       // User role
	FullName   string `json:"fullName"`   // Display name
	JoinedDate string `json:"joinedDate"` // Registration time
}

// ListUsersHandler returns every account without credentials
func ListUsersHandler(accounts *account.Service, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		// Try to get cached response
		var cached []UserAdminResponse
		if rdb != nil && ttl > 0 {
			if found, err := utils.GetCache(ctx, rdb, adminUsersKey, &cached); err == nil && found {
				c.JSON(http.StatusOK, gin.H{"users": cached, "total": len(cached), "cached": true})
				return
			}
		}
		users, err := accounts.ListUsers(ctx)
		if err != nil {
			respondError(c, err, "User not found", "Failed to fetch users")
			return
		}
		// Map users to response format
		resp := make([]UserAdminResponse, len(users))
		for i, u := range users {
			resp[i] = UserAdminResponse{
				Username:   u.Username,   // Username
				Role:       u.Role,       // User role
				FullName:   u.FullName,   // Display name
				JoinedDate: u.JoinedDate, // Registration time
			}
		}
		// Cache the response for future requests
		if rdb != nil && ttl > 0 {
			_ = utils.SetCache(ctx, rdb, adminUsersKey, resp, ttl)
		}
		c.JSON(http.StatusOK, gin.H{"users": resp, "total": len(resp), "cached": false})
	}
}

// ProvisionUserHandler lets an administrator create a regular account
func ProvisionUserHandler(accounts *account.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req account.NewUser // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		admin, _ := middleware.CurrentUser(c)
		user, err := accounts.Provision(c.Request.Context(), admin, req)
		if err != nil {
			respondError(c, err, "User not found", "Failed to create user")
			return
		}
		invalidateUsers(c.Request.Context(), rdb) // Listing is stale now
		c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "user": UserAdminResponse{
			Username:   user.Username,
			Role:       user.Role,
			FullName:   user.FullName,
			JoinedDate: user.JoinedDate,
		}})
	}
}
