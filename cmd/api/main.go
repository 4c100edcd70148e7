package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"barguru/internal/api"
	"barguru/internal/cocktail"
	"barguru/internal/config"
	"barguru/internal/logging"
	"barguru/internal/middleware"
	"barguru/internal/platform/analytics"
	"barguru/internal/platform/clerk"
	"barguru/internal/platform/gemini"
	"barguru/internal/platform/localllm"
)

func main() {
	configPath := flag.String("config", "", "path to the config file (defaults to ./config.json)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Errorf("failed to load config: %w", err))
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic(fmt.Errorf("failed to create logger: %w", err))
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Environment,
			AttachStacktrace: true,
		}); err != nil {
			return fmt.Errorf("error initializing sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	store, err := cocktail.NewPostgresStore(cfg.Database.URL, cfg.Quota.AnonymousLimit)
	if err != nil {
		return fmt.Errorf("error creating postgresstore: %w", err)
	}
	defer store.Close()

	generator, closeGenerator, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeGenerator()

	var (
		verifier middleware.SessionVerifier
		users    api.UserDirectory
		webhooks api.WebhookVerifier
	)
	if cfg.Clerk.JWTKey != "" {
		v, err := clerk.NewVerifier(cfg.Clerk.JWTKey, cfg.Clerk.AuthorizedParties)
		if err != nil {
			return fmt.Errorf("error creating session verifier: %w", err)
		}
		verifier = v
	} else {
		logger.Warn("clerk.jwt_key is not set; every request is treated as anonymous")
	}
	if cfg.Clerk.SecretKey != "" {
		users = clerk.NewDirectory(cfg.Clerk.SecretKey)
	}
	if cfg.Clerk.WebhookSecret != "" {
		wh, err := clerk.NewWebhookVerifier(cfg.Clerk.WebhookSecret)
		if err != nil {
			return fmt.Errorf("error creating webhook verifier: %w", err)
		}
		webhooks = wh
	}

	var tracker analytics.Tracker = analytics.NoopTracker{}
	if cfg.PostHog.APIKey != "" {
		tracker, err = analytics.NewPostHogTracker(cfg.PostHog.APIKey, cfg.PostHog.Host, cfg.PostHog.FlushInterval, logger)
		if err != nil {
			return fmt.Errorf("error creating posthog client: %w", err)
		}
	}
	defer tracker.Close()

	var aiLimit gin.HandlerFunc
	if cfg.RateLimit.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RateLimit.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid rate_limit.redis_url: %w", err)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		aiLimit = middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
			Window:    cfg.RateLimit.Window,
			Limit:     cfg.RateLimit.Limit,
			KeyPrefix: "rate_limit:ai",
		}, logger).Middleware()
	}

	if err := api.RegisterValidators(); err != nil {
		return fmt.Errorf("error registering validators: %w", err)
	}

	handler := api.NewHandler(store, generator, users, webhooks, tracker, logger, api.Options{
		GenerateTimeout: cfg.LLM.Timeout,
		ImageTimeout:    cfg.Image.Timeout,
		ImageMaxWidth:   cfg.Image.MaxWidth,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r, err := newRouter(cfg, handler, verifier, aiLimit, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Server.Addr), zap.String("llm_provider", cfg.LLM.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newGenerator builds the configured model backend.
func newGenerator(ctx context.Context, cfg *config.Config) (api.Generator, func(), error) {
	switch cfg.LLM.Provider {
	case "local":
		return localllm.NewClient(cfg.LLM.LocalURL, cfg.LLM.LocalModel, cfg.LLM.Timeout), func() {}, nil
	default:
		geminiClient, err := gemini.NewClient(ctx, cfg.LLM.GeminiAPIKey, gemini.Models{
			Cocktail: cfg.LLM.CocktailModel,
			Chat:     cfg.LLM.ChatModel,
			Image:    cfg.LLM.ImageModel,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("error creating gemini client: %w", err)
		}
		return geminiClient, func() { _ = geminiClient.Close() }, nil
	}
}

// newRouter wires the middleware chain and routes.
func newRouter(cfg *config.Config, handler *api.Handler, verifier middleware.SessionVerifier, aiLimit gin.HandlerFunc, logger *zap.Logger) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid server.trusted_proxies: %w", err)
	}
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))

	// Configure CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestLogger(logger, "/healthz"))
	r.Use(middleware.Auth(verifier, logger))
	r.Use(middleware.AnonymousSession(middleware.SessionConfig{
		CookieName: cfg.Quota.SessionCookie,
		MaxAge:     cfg.Quota.SessionMaxAge,
		Secure:     cfg.Quota.SecureCookie,
	}))

	handler.RegisterRoutes(r, aiLimit)
	return r, nil
}
