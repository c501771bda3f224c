package api

import (
	"time"

	"smart_wallet/internal/account"    // Account service
	"smart_wallet/internal/advice"     // Advice collaborator
	"smart_wallet/internal/catalog"    // Category catalog
	"smart_wallet/internal/events"     // Change notifications
	"smart_wallet/internal/ledger"     // Balance reconciliation
	"smart_wallet/internal/middleware" // Auth middleware
	"smart_wallet/internal/session"    // Session lifecycle
	"smart_wallet/internal/store"      // Storage

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// Deps are the services the routes are built from
type Deps struct {
	Store    store.Store
	Accounts *account.Service
	Ledger   *ledger.Service
	Catalog  *catalog.Service
	Sessions *session.Manager
	Events   events.Subscriber
	Advisor  advice.Advisor
	Redis    *redis.Client  // Optional; nil disables caching
	CacheTTL time.Duration
	Now      func() time.Time // Clock for default date ranges
}

// RegisterRoutes mounts every endpoint on r
func RegisterRoutes(r gin.IRouter, d Deps) {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Advisor == nil {
		d.Advisor = advice.Disabled{}
	}
	src := ownerSource{Store: d.Store, categories: d.Catalog}

	// Auth routes
	auth := r.Group("/auth")
	auth.POST("/register", RegisterHandler(d.Accounts, d.Redis))                              // Registration endpoint
	auth.POST("/login", LoginHandler(d.Accounts, d.Catalog, d.Sessions, d.Redis))             // Login endpoint
	auth.POST("/logout", middleware.JWTAuthMiddleware(d.Sessions), LogoutHandler(d.Sessions)) // Logout endpoint

	// Everything below requires a live session
	user := r.Group("")
	user.Use(middleware.JWTAuthMiddleware(d.Sessions))
	user.GET("/profile", GetProfileHandler(d.Accounts))
	user.PUT("/profile", UpdateProfileHandler(d.Accounts, d.Sessions, d.Redis))

	user.GET("/wallets", ListWalletsHandler(d.Ledger))
	user.POST("/wallets", CreateWalletHandler(d.Ledger, d.Redis))
	user.DELETE("/wallets/:id", DeleteWalletHandler(d.Ledger, d.Redis))

	user.GET("/transactions", ListTransactionsHandler(d.Ledger, d.Now))
	user.POST("/transactions", CreateTransactionHandler(d.Ledger, d.Redis))
	user.DELETE("/transactions/:id", DeleteTransactionHandler(d.Ledger, d.Redis))

	user.GET("/categories", ListCategoriesHandler(d.Catalog))
	user.POST("/categories", CreateCategoryHandler(d.Catalog, d.Redis))
	user.DELETE("/categories/:id", DeleteCategoryHandler(d.Catalog, d.Redis))

	user.GET("/dashboard", DashboardHandler(src, d.Redis, d.CacheTTL, d.Now))
	user.GET("/dashboard/stream", DashboardStreamHandler(src, d.Events, d.Now))

	user.POST("/advice", AdviceHandler(src, d.Advisor))
	user.POST("/advice/chat", ChatHandler(src, d.Advisor))

	// Admin routes (protected, admin only)
	admin := user.Group("/admin")
	admin.Use(middleware.AdminOnlyMiddleware(d.Accounts))
	admin.GET("/users", ListUsersHandler(d.Accounts, d.Redis, d.CacheTTL)) // List users endpoint
	admin.POST("/users", ProvisionUserHandler(d.Accounts, d.Redis))        // Create user endpoint
}
