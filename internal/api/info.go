package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"barguru/internal/cocktail"
	"barguru/internal/middleware"
	"barguru/internal/platform/analytics"
)

// Health reports whether the database is reachable.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		h.Logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ingredients returns the primary ingredient catalogue.
func (h *Handler) Ingredients(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": cocktail.IngredientCategories(),
		"other":      gin.H{"value": cocktail.OtherIngredient, "label": "Other"},
	})
}

// FeatureFlags evaluates the caller's feature flags. Known flags default to
// false when the flag service is unavailable.
func (h *Handler) FeatureFlags(c *gin.Context) {
	flags := map[string]interface{}{}
	for _, key := range analytics.KnownFlags {
		flags[key] = false
	}

	evaluated, err := h.Tracker.FeatureFlags(middleware.DistinctID(c))
	if err != nil {
		h.Logger.Warn("failed to get feature flags", zap.Error(err))
	}
	for k, v := range evaluated {
		flags[k] = v
	}

	c.JSON(http.StatusOK, gin.H{"flags": flags})
}

// Usage reports the member's generation count and plan.
func (h *Handler) Usage(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	count, err := h.Store.GetUserCocktailCount(ctx, userID)
	if err != nil {
		h.serverError(c, err, "Unable to load usage.")
		return
	}
	user, err := h.Store.GetUser(ctx, userID)
	if err != nil {
		h.serverError(c, err, "Unable to load usage.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":        userID,
		"cocktailCount": count,
		"isPremium":     user != nil && user.IsPremium,
	})
}

// Quota reports whether the caller may generate another cocktail. Members
// are never limited.
func (h *Handler) Quota(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if userID, ok := middleware.UserID(c); ok {
		count, err := h.Store.GetUserCocktailCount(ctx, userID)
		if err != nil {
			h.serverError(c, err, "Unable to check your free generations.")
			return
		}
		c.JSON(http.StatusOK, cocktail.QuotaStatus{CanGenerate: true, UsageCount: count})
		return
	}

	quota, err := h.Store.CheckAnonQuota(ctx, middleware.SessionID(c))
	if err != nil {
		h.serverError(c, err, "Unable to check your free generations.")
		return
	}
	c.JSON(http.StatusOK, quota)
}
