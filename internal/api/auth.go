package api

import (
	"errors"
	"net/http" // HTTP status codes

	"smart_wallet/internal/account"    // Account service
	"smart_wallet/internal/catalog"    // Category catalog
	"smart_wallet/internal/domain"     // Importing domain models
	"smart_wallet/internal/middleware" // Context keys
	"smart_wallet/internal/session"    // Session lifecycle

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// Request struct for login
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Response struct for authentication
type AuthResponse struct {
	Token     string      `json:"token"`     // JWT token
	User      domain.User `json:"user"`      // Signed-in user, without password
	ExpiresIn int         `json:"expiresIn"` // Seconds of inactivity before the session ends
}

// RegisterHandler creates a regular account
func RegisterHandler(accounts *account.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req account.NewUser // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, err := accounts.Register(c.Request.Context(), req) // Validate, hash and store
		if err != nil {
			respondError(c, err, "User not found", "Failed to register user")
			return
		}
		logrus.WithFields(logrus.Fields{"username": user.Username}).Info("User registered")
		invalidateUsers(c.Request.Context(), rdb)
		// Return success response
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": user})
	}
}

// LoginHandler authenticates a user, makes sure the default categories exist and opens a session
func LoginHandler(accounts *account.Service, categories *catalog.Service, sessions *session.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, err := accounts.Login(c.Request.Context(), req.Username, req.Password)
		if errors.Is(err, account.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		if err != nil {
			respondError(c, err, "Invalid credentials", "Failed to sign in")
			return
		}
		// Seed the default categories for an account that has none
		if _, err := categories.List(c.Request.Context(), user.Username); err != nil {
			logrus.WithFields(logrus.Fields{"username": user.Username, "error": err.Error()}).Warn("Failed to prepare categories")
		}
		if user.IsAdmin() {
			invalidateUsers(c.Request.Context(), rdb) // First admin login may have created the account
		}
		token, err := sessions.Create(c.Request.Context(), user) // Store session and sign token
		if err != nil {
			respondError(c, err, "Invalid credentials", "Failed to generate token")
			return
		}
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{Token: token, User: user, ExpiresIn: int(sessions.Idle().Seconds())})
	}
}

// LogoutHandler ends the current session
func LogoutHandler(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sessions.Destroy(c.Request.Context(), c.GetString(middleware.SessionIDKey)); err != nil {
			respondError(c, err, "Session not found", "Failed to sign out")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
	}
}
