package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"barguru/internal/cocktail"
	"barguru/internal/llm"
	"barguru/internal/middleware"
	"barguru/internal/platform/analytics"
	"barguru/internal/platform/clerk"
)

// Generator defines the interface for interacting with the language model.
type Generator interface {
	StreamObject(ctx context.Context, prompt string, schema *cocktail.Schema, temperature float32, emit func(string) error) error
	GenerateObject(ctx context.Context, prompt string, schema *cocktail.Schema, temperature float32, out any) error
	GenerateImage(ctx context.Context, prompt string) (*llm.Image, error)
	Chat(ctx context.Context, req llm.ChatRequest, emit func(llm.Event) error) error
}

// UserDirectory looks up member profiles at the identity provider.
type UserDirectory interface {
	GetProfile(ctx context.Context, userID string) (*clerk.Profile, error)
}

// WebhookVerifier authenticates identity provider webhooks.
type WebhookVerifier interface {
	Verify(payload []byte, headers http.Header) (*clerk.WebhookEvent, error)
}

// Options tunes handler behaviour.
type Options struct {
	// GenerateTimeout bounds text generation and chat requests.
	GenerateTimeout time.Duration
	// ImageTimeout bounds image generation.
	ImageTimeout time.Duration
	// ImageMaxWidth is the width generated images are scaled down to.
	ImageMaxWidth uint
}

// Handler handles HTTP requests.
type Handler struct {
	Store     cocktail.Store
	Generator Generator
	Users     UserDirectory
	Webhooks  WebhookVerifier
	Tracker   analytics.Tracker
	Logger    *zap.Logger
	Options   Options
}

// NewHandler creates a new Handler. users and webhooks may be nil when Clerk
// is not configured; tracker defaults to a no-op.
func NewHandler(store cocktail.Store, generator Generator, users UserDirectory, webhooks WebhookVerifier, tracker analytics.Tracker, logger *zap.Logger, opts Options) *Handler {
	if tracker == nil {
		tracker = analytics.NoopTracker{}
	}
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = 30 * time.Second
	}
	if opts.ImageTimeout <= 0 {
		opts.ImageTimeout = 60 * time.Second
	}
	if opts.ImageMaxWidth == 0 {
		opts.ImageMaxWidth = 768
	}
	return &Handler{
		Store:     store,
		Generator: generator,
		Users:     users,
		Webhooks:  webhooks,
		Tracker:   tracker,
		Logger:    logger,
		Options:   opts,
	}
}

// RegisterRoutes mounts every endpoint on r. aiLimit, when non-nil, guards
// the routes that call the model.
func (h *Handler) RegisterRoutes(r gin.IRouter, aiLimit gin.HandlerFunc) {
	if aiLimit == nil {
		aiLimit = func(c *gin.Context) { c.Next() }
	}

	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	api.POST("/generate-cocktail", aiLimit, h.GenerateCocktail)
	api.POST("/generate-cocktail-image", aiLimit, h.GenerateCocktailImage)
	api.POST("/chat", aiLimit, h.Chat)
	api.POST("/ai/chat", aiLimit, h.BarChat)

	saved := api.Group("/saved-cocktails", middleware.RequireUser())
	saved.GET("", h.ListSavedCocktails)
	saved.POST("", h.SaveCocktail)
	saved.DELETE("", h.DeleteSavedCocktail)

	api.GET("/me/usage", middleware.RequireUser(), h.Usage)
	api.GET("/quota", h.Quota)
	api.GET("/ingredients", h.Ingredients)
	api.GET("/feature-flags", h.FeatureFlags)
	api.POST("/webhooks/clerk", h.ClerkWebhook)
}

// serverError logs err, reports it to Sentry and writes a JSON error. Deadline
// expiry is reported as a timeout.
func (h *Handler) serverError(c *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
		message = "The request timed out. Please try again."
	}
	h.Logger.Error(message, zap.Error(err), zap.String("path", c.FullPath()))
	h.report(c, err)
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": message})
}

// report sends err to Sentry when the request carries a hub.
func (h *Handler) report(c *gin.Context, err error) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			if userID, ok := middleware.UserID(c); ok {
				scope.SetUser(sentry.User{ID: userID})
			}
			scope.SetTag("route", c.FullPath())
			hub.CaptureException(err)
		})
	}
}

// capture records an analytics event for the caller.
func (h *Handler) capture(c *gin.Context, event string, props map[string]interface{}) {
	if props == nil {
		props = map[string]interface{}{}
	}
	_, signedIn := middleware.UserID(c)
	props["authenticated"] = signedIn
	h.Tracker.Capture(middleware.DistinctID(c), event, props)
}

// ensureUser makes sure the member has a users row, fetching their profile
// from the identity provider the first time.
func (h *Handler) ensureUser(ctx context.Context, userID string) error {
	existing, err := h.Store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	profile := &clerk.Profile{ID: userID}
	if h.Users != nil {
		if profile, err = h.Users.GetProfile(ctx, userID); err != nil {
			return err
		}
	}
	_, err = h.Store.GetOrCreateUser(ctx, userID, profile.Email, profile.FirstName, profile.LastName)
	return err
}
