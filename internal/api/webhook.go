package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"barguru/internal/platform/analytics"
	"barguru/internal/platform/clerk"
)

const maxWebhookBody = 1 << 20

// ClerkWebhook keeps the users table in sync with Clerk.
func (h *Handler) ClerkWebhook(c *gin.Context) {
	if h.Webhooks == nil {
		h.Logger.Error("clerk webhook received but no signing secret is configured")
		c.String(http.StatusInternalServerError, "Webhook secret not configured")
		return
	}

	if !clerk.HasSvixHeaders(c.Request.Header) {
		c.String(http.StatusBadRequest, "Error occurred -- no svix headers")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.String(http.StatusBadRequest, "Error occurred")
		return
	}

	evt, err := h.Webhooks.Verify(payload, c.Request.Header)
	if err != nil {
		h.Logger.Warn("error verifying webhook", zap.Error(err))
		c.String(http.StatusBadRequest, "Error occurred")
		return
	}

	var data clerk.UserData
	if evt.Type == "" || !isJSONObject(evt.Data) || json.Unmarshal(evt.Data, &data) != nil {
		h.Logger.Warn("invalid webhook payload received")
		c.String(http.StatusBadRequest, "Invalid payload")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.applyUserEvent(ctx, evt.Type, data); err != nil {
		h.serverError(c, err, "Unable to process webhook.")
		return
	}

	c.String(http.StatusOK, "Webhook received")
}

func (h *Handler) applyUserEvent(ctx context.Context, eventType string, data clerk.UserData) error {
	profile := data.Profile()

	switch eventType {
	case clerk.EventUserCreated:
		if profile.Email == "" {
			return nil
		}
		if _, err := h.Store.GetOrCreateUser(ctx, profile.ID, profile.Email, profile.FirstName, profile.LastName); err != nil {
			return err
		}
		h.Tracker.Identify(profile.ID, map[string]interface{}{
			"email":      profile.Email,
			"first_name": profile.FirstName,
			"last_name":  profile.LastName,
		})
		h.Tracker.Capture(profile.ID, analytics.EventUserSignedUp, nil)
		h.Logger.Info("created user in database", zap.String("user_id", profile.ID))

	case clerk.EventUserUpdated:
		if profile.Email == "" {
			return nil
		}
		if _, err := h.Store.UpsertUser(ctx, profile.ID, profile.Email, profile.FirstName, profile.LastName); err != nil {
			return err
		}
		if premium, ok := data.Premium(); ok {
			if _, err := h.Store.UpdateUserPremiumStatus(ctx, profile.ID, premium); err != nil {
				return err
			}
		}
		h.Logger.Info("updated user in database", zap.String("user_id", profile.ID))

	case clerk.EventUserDeleted:
		if profile.ID == "" {
			return nil
		}
		deleted, err := h.Store.DeleteUser(ctx, profile.ID)
		if err != nil {
			return err
		}
		h.Logger.Info("user deleted from Clerk", zap.String("user_id", profile.ID), zap.Bool("removed", deleted))

	default:
		h.Logger.Debug("ignoring webhook event", zap.String("type", eventType))
	}
	return nil
}

func isJSONObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
