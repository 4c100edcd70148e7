package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"barguru/internal/cocktail"
	"barguru/internal/llm"
	"barguru/internal/middleware"
	"barguru/internal/platform/analytics"
)

const quotaMessage = "You've used your free cocktail generation. Sign up to keep creating unlimited cocktails and save your favorites."

// GenerateCocktail streams a new cocktail spec as JSON text. Anonymous
// sessions are limited to the configured number of free generations.
func (h *Handler) GenerateCocktail(c *gin.Context) {
	var in cocktail.Input
	if !bindJSON(c, &in, "Invalid cocktail input.") {
		return
	}
	in.Normalize()

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Options.GenerateTimeout)
	defer cancel()

	userID, signedIn := middleware.UserID(c)
	sessionID := middleware.SessionID(c)

	var usage *cocktail.Usage
	if signedIn {
		var err error
		if usage, err = h.Store.TrackCocktailGeneration(ctx, &userID, sessionID); err != nil {
			h.Logger.Error("failed to track cocktail generation", zap.Error(err), zap.String("session_id", sessionID))
		}
	} else {
		quota, claimed, err := h.Store.ClaimAnonGeneration(ctx, sessionID)
		if err != nil {
			h.serverError(c, err, "Unable to check your free generations.")
			return
		}
		if claimed == nil {
			h.capture(c, analytics.EventQuotaExceeded, map[string]interface{}{"usage_count": quota.UsageCount})
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":          "Quota exceeded",
				"message":        quotaMessage,
				"requiresSignUp": true,
				"usageCount":     quota.UsageCount,
			})
			return
		}
		usage = claimed
	}

	prompt := cocktail.GenerationPrompt(in)
	h.Logger.Debug("creating cocktail", zap.String("prompt", prompt))

	started := false
	err := h.Generator.StreamObject(ctx, prompt, cocktail.CocktailSchema(), generationTemperature, func(chunk string) error {
		if !started {
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.Header("Cache-Control", "no-cache")
			c.Header("X-Content-Type-Options", "nosniff")
			c.Status(http.StatusOK)
			started = true
		}
		if _, err := c.Writer.WriteString(chunk); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		if !started {
			h.releaseGeneration(ctx, usage)
			h.serverError(c, err, "We couldn't generate a cocktail right now.")
			return
		}
		// Headers are already sent; the client sees a truncated document.
		h.Logger.Error("cocktail stream interrupted", zap.Error(err))
		h.report(c, err)
		return
	}
	if !started {
		h.releaseGeneration(ctx, usage)
		h.serverError(c, llm.ErrEmptyResponse, "We couldn't generate a cocktail right now.")
		return
	}

	h.capture(c, analytics.EventCocktailGenerated, map[string]interface{}{
		"primary_ingredient": in.PrimaryIngredient,
		"theme":              in.Theme,
		"cuisine":            in.Cuisine,
		"type":               string(in.Type),
	})
}

// releaseGeneration gives back a generation that produced no output so it
// does not count against the caller's quota.
func (h *Handler) releaseGeneration(ctx context.Context, usage *cocktail.Usage) {
	if usage == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.Store.ReleaseCocktailGeneration(ctx, usage.ID); err != nil {
		h.Logger.Error("failed to release cocktail generation", zap.Error(err), zap.Int64("usage_id", usage.ID))
	}
}
