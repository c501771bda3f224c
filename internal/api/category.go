package api

import (
	"net/http" // HTTP status codes

	"smart_wallet/internal/catalog" // Category catalog
	"smart_wallet/internal/domain"  // Importing domain models

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// CategoryRequest represents a custom category
type CategoryRequest struct {
	Name  string `json:"name" binding:"required"` // Display name
	Color string `json:"color"`                   // Chart color, defaulted when empty
	Icon  string `json:"icon"`                    // Emoji icon, defaulted when empty
}

// ListCategoriesHandler returns the categories, seeding the defaults for a new account
func ListCategoriesHandler(categories *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		cats, err := categories.List(c.Request.Context(), owner(c))
		if err != nil {
			respondError(c, err, "Category not found", "Failed to fetch categories")
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": cats})
	}
}

// CreateCategoryHandler adds a custom category
func CreateCategoryHandler(categories *catalog.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CategoryRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		cat, err := categories.Create(c.Request.Context(), owner(c), domain.Category{Name: req.Name, Color: req.Color, Icon: req.Icon})
		if err != nil {
			respondError(c, err, "Category not found", "Failed to create category")
			return
		}
		invalidateDashboard(c.Request.Context(), rdb, owner(c))
		c.JSON(http.StatusCreated, cat)
	}
}

// DeleteCategoryHandler removes a category; transactions keep the dangling id
func DeleteCategoryHandler(categories *catalog.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := categories.Delete(c.Request.Context(), owner(c), c.Param("id")); err != nil {
			respondError(c, err, "Category not found", "Failed to delete category")
			return
		}
		invalidateDashboard(c.Request.Context(), rdb, owner(c))
		c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
	}
}
