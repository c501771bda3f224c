package api

import (
	"context"
	"net/http" // HTTP status codes
	"time"     // Default date range

	"smart_wallet/internal/catalog" // Category catalog
	"smart_wallet/internal/domain"  // Importing domain models
	"smart_wallet/internal/events"  // Change notifications
	"smart_wallet/internal/report"  // Dashboard figures
	"smart_wallet/internal/state"   // Snapshot loading
	"smart_wallet/internal/store"   // Storage
	"smart_wallet/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// ownerSource reads records from the store and categories through the catalog, so defaults exist
type ownerSource struct {
	store.Store
	categories *catalog.Service
}

func (s ownerSource) ListCategories(ctx context.Context, owner string) ([]domain.Category, error) {
	return s.categories.List(ctx, owner)
}

// DashboardResponse is the cached dashboard payload
type DashboardResponse struct {
	Stats  report.Stats  `json:"stats"`  // Totals and expense breakdown
	Filter report.Filter `json:"filter"` // Effective filter
	Empty  bool          `json:"empty"`  // No expense in the range
	Cached bool          `json:"cached"` // Served from cache
}

func dashboardKey(owner string, f report.Filter) string {
	return dashboardPrefix(owner) + f.Start + ":" + f.End + ":" + f.Search
}

// DashboardHandler returns the totals and expense breakdown for the filter
func DashboardHandler(src state.Source, rdb *redis.Client, ttl time.Duration, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := bindFilter(c, now()) // Current month when no range is given
		if !ok {
			return
		}
		ctx := c.Request.Context()
		cacheKey := dashboardKey(owner(c), filter) // Cache key per owner and filter

		// Try to get cached response
		var cached DashboardResponse
		if rdb != nil && ttl > 0 {
			found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
			if err == nil && found {
				cached.Cached = true // Indicate response is from cache
				c.JSON(http.StatusOK, cached)
				return
			}
		}

		snap, err := state.Load(ctx, src, owner(c)) // Load all three collections
		if err != nil {
			respondError(c, err, "Not found", "Failed to load dashboard")
			return
		}
		stats := report.Aggregate(snap, filter)
		resp := DashboardResponse{Stats: stats, Filter: filter, Empty: stats.Empty()}
		// Cache the response for future requests
		if rdb != nil && ttl > 0 {
			if err := utils.SetCache(ctx, rdb, cacheKey, resp, ttl); err != nil {
				logrus.WithFields(logrus.Fields{"key": cacheKey, "error": err.Error()}).Warn("Failed to cache dashboard")
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

// DashboardStreamHandler pushes fresh dashboard figures as server-sent events whenever a record changes
func DashboardStreamHandler(src state.Source, sub events.Subscriber, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := bindFilter(c, now()) // Current month when no range is given
		if !ok {
			return
		}
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		feed := state.NewFeed(src, sub, owner(c))
		err := feed.Run(c.Request.Context(), func(report.Snapshot) error {
			stats := feed.State().Stats(filter)
			c.SSEvent("stats", DashboardResponse{Stats: stats, Filter: filter, Empty: stats.Empty()})
			c.Writer.Flush() // Deliver the event now
			return nil
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{"owner": owner(c), "error": err.Error()}).Error("Dashboard stream failed")
			c.SSEvent("error", gin.H{"error": "Failed to load dashboard"})
			c.Writer.Flush()
			return
		}
		c.SSEvent("end", gin.H{"message": "Stream closed"})
	}
}
