package api

import (
	"context"
	"errors"
	"net/http" // HTTP status codes
	"time"     // Default date range

	"smart_wallet/internal/domain"     // Importing domain models
	"smart_wallet/internal/middleware" // Context keys
	"smart_wallet/internal/report"     // Transaction filter
	"smart_wallet/internal/store"      // Storage errors
	"smart_wallet/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// owner returns the owner key of the signed-in user
func owner(c *gin.Context) string {
	return c.GetString(middleware.UsernameKey)
}

// respondError maps a service error onto a status code and a JSON body
func respondError(c *gin.Context, err error, notFound, failed string) {
	switch {
	case errors.Is(err, domain.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()}) // Duplicate identity
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)}) // Rejected input
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound}) // Missing or owned by someone else
	default:
		// Log the error with context
		logrus.WithFields(logrus.Fields{
			"owner": owner(c),     // Signed-in user
			"path":  c.FullPath(), // Route
			"error": err.Error(),  // Error message
		}).Error(failed)
		c.JSON(http.StatusInternalServerError, gin.H{"error": failed})
	}
}

// validationMessage strips the operation prefixes and keeps the rule that failed
func validationMessage(err error) string {
	var v *domain.ValidationError
	if errors.As(err, &v) {
		return v.Error()
	}
	return err.Error()
}

func dashboardPrefix(owner string) string {
	return "dashboard:" + owner + ":"
}

// invalidateDashboard drops every cached dashboard of owner
func invalidateDashboard(ctx context.Context, rdb *redis.Client, owner string) {
	if rdb == nil {
		return
	}
	if err := utils.DeleteCachePrefix(ctx, rdb, dashboardPrefix(owner)); err != nil {
		logrus.WithFields(logrus.Fields{"owner": owner, "error": err.Error()}).Warn("Failed to invalidate dashboard cache")
	}
}

// invalidateUsers drops the cached admin user listing
func invalidateUsers(ctx context.Context, rdb *redis.Client) {
	if rdb == nil {
		return
	}
	if err := utils.DeleteCache(ctx, rdb, adminUsersKey); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate user listing")
	}
}

// bindFilter reads from, to and q and fills a missing bound from now. It
// answers 400 itself when the query is malformed.
func bindFilter(c *gin.Context, now time.Time) (report.Filter, bool) {
	var filter report.Filter // Bind query parameters
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter"})
		return report.Filter{}, false
	}
	if err := filter.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return report.Filter{}, false
	}
	return filter.WithDefaults(now), true
}
