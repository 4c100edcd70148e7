package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"barguru/internal/cocktail"
	"barguru/internal/middleware"
	"barguru/internal/platform/analytics"
)

type saveCocktailRequest struct {
	Cocktail cocktail.Cocktail `json:"cocktail"`
	Inputs   *cocktail.Input   `json:"inputs"`
	ImageURL *string           `json:"imageUrl" binding:"omitempty,url"`
}

type deleteCocktailRequest struct {
	CocktailID *int64 `json:"cocktailId" binding:"required"`
}

// ListSavedCocktails returns the member's saved cocktails.
func (h *Handler) ListSavedCocktails(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	cocktails, err := h.Store.ListSavedCocktails(ctx, userID)
	if err != nil {
		h.serverError(c, err, "Unable to load saved cocktails.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"cocktails": cocktails})
}

// SaveCocktail stores a cocktail on the member's profile.
func (h *Handler) SaveCocktail(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req saveCocktailRequest
	if !bindJSON(c, &req, "Invalid cocktail payload.") {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.ensureUser(ctx, userID); err != nil {
		h.serverError(c, err, "Unable to save cocktail.")
		return
	}

	record, err := h.Store.SaveCocktailForUser(ctx, userID, req.Cocktail, req.Inputs, req.ImageURL)
	if err != nil {
		h.serverError(c, err, "Unable to save cocktail.")
		return
	}

	h.capture(c, analytics.EventCocktailSaved, map[string]interface{}{"cocktail_name": record.Name})
	c.JSON(http.StatusCreated, gin.H{"cocktail": record})
}

// DeleteSavedCocktail removes one of the member's saved cocktails.
func (h *Handler) DeleteSavedCocktail(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req deleteCocktailRequest
	if !bindJSON(c, &req, "Invalid cocktail ID.") {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	deleted, err := h.Store.DeleteSavedCocktail(ctx, userID, *req.CocktailID)
	if err != nil {
		h.serverError(c, err, "Unable to delete cocktail.")
		return
	}
	if deleted == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cocktail not found."})
		return
	}

	h.capture(c, analytics.EventCocktailDeleted, map[string]interface{}{"cocktail_id": deleted.ID})
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cocktail deleted successfully."})
}
