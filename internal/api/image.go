package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"barguru/internal/cocktail"
	"barguru/internal/platform/analytics"
)

// GenerateCocktailImage returns a photograph for a cocktail as a data URL.
// Images are cached by request key so repeated requests reuse the first render.
func (h *Handler) GenerateCocktailImage(c *gin.Context) {
	var req cocktail.ImageRequest
	if !bindJSON(c, &req, "Invalid cocktail payload.") {
		return
	}
	if !req.Cocktail.CanGenerateImage() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid cocktail payload.",
			"details": []Issue{{Path: "cocktail", Message: "needs a name, description, ingredients, garnish, glass and tags"}},
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Options.ImageTimeout)
	defer cancel()

	requestHash := cocktail.KeyHash(cocktail.ImageRequestKey(req.Cocktail, req.Inputs))

	cached, err := h.Store.GetCocktailImage(ctx, requestHash)
	if err != nil {
		h.Logger.Warn("failed to read cached cocktail image", zap.Error(err))
	}
	if cached != "" {
		h.Logger.Debug("cocktail image found in database", zap.String("request_hash", requestHash))
		c.JSON(http.StatusOK, gin.H{"imageUrl": cached})
		return
	}

	prompt := cocktail.ImagePrompt(req.Cocktail, req.Inputs)
	img, err := h.Generator.GenerateImage(ctx, prompt)
	if err != nil {
		h.serverError(c, err, "We couldn't generate the cocktail image.")
		return
	}

	imageURL, err := encodeImage(img.Data, img.MIMEType, h.Options.ImageMaxWidth)
	if err != nil {
		h.serverError(c, err, "We couldn't generate the cocktail image.")
		return
	}

	if err := h.Store.SaveCocktailImage(ctx, requestHash, imageURL); err != nil {
		h.Logger.Warn("failed to save cocktail image", zap.Error(err))
	}

	h.capture(c, analytics.EventCocktailImageGenerated, map[string]interface{}{"cocktail_name": req.Cocktail.Name})
	c.JSON(http.StatusOK, gin.H{"imageUrl": imageURL})
}

// encodeImage scales the image down to maxWidth and returns it as a PNG data
// URL. Formats the decoder does not know are passed through unchanged.
func encodeImage(data []byte, mimeType string, maxWidth uint) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if mimeType == "" {
			return "", fmt.Errorf("failed to decode image: %w", err)
		}
		return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
	}

	if uint(img.Bounds().Dx()) > maxWidth {
		img = resize.Resize(maxWidth, 0, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
