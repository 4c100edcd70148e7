// Package analytics records product events and evaluates feature flags.
package analytics

import (
	"time"

	"github.com/posthog/posthog-go"
	"go.uber.org/zap"
)

// Event names captured by the API.
const (
	EventCocktailGenerated      = "cocktail_generated"
	EventCocktailImageGenerated = "cocktail_image_generated"
	EventCocktailSaved          = "cocktail_saved"
	EventCocktailDeleted        = "cocktail_deleted"
	EventQuotaExceeded          = "quota_exceeded"
	EventChatMessage            = "chat_message_sent"
	EventUserSignedUp           = "user_signed_up"
)

// Feature flag keys the frontend gates on.
const (
	FlagMonetizationEnabled = "monetization_enabled"
	FlagProTierEnabled      = "pro_tier_enabled"
	FlagTeamTierEnabled     = "team_tier_enabled"
)

// KnownFlags lists the flags always present in flag responses.
var KnownFlags = []string{FlagMonetizationEnabled, FlagProTierEnabled, FlagTeamTierEnabled}

// Tracker records analytics events.
type Tracker interface {
	Capture(distinctID, event string, props map[string]interface{})
	Identify(distinctID string, traits map[string]interface{})
	FeatureFlags(distinctID string) (map[string]interface{}, error)
	Close() error
}

// PostHogTracker sends events to PostHog. Enqueue never blocks; the client
// batches and flushes in the background.
type PostHogTracker struct {
	client posthog.Client
	logger *zap.Logger
}

// NewPostHogTracker creates a tracker for the given project key and host.
func NewPostHogTracker(apiKey, host string, flushInterval time.Duration, logger *zap.Logger) (*PostHogTracker, error) {
	client, err := posthog.NewWithConfig(apiKey, posthog.Config{
		Endpoint: host,
		Interval: flushInterval,
	})
	if err != nil {
		return nil, err
	}
	return &PostHogTracker{client: client, logger: logger}, nil
}

func (t *PostHogTracker) Capture(distinctID, event string, props map[string]interface{}) {
	p := posthog.NewProperties()
	for k, v := range props {
		p.Set(k, v)
	}
	if err := t.client.Enqueue(posthog.Capture{DistinctId: distinctID, Event: event, Properties: p}); err != nil {
		t.logger.Warn("failed to enqueue analytics event", zap.String("event", event), zap.Error(err))
	}
}

func (t *PostHogTracker) Identify(distinctID string, traits map[string]interface{}) {
	p := posthog.NewProperties()
	for k, v := range traits {
		p.Set(k, v)
	}
	if err := t.client.Enqueue(posthog.Identify{DistinctId: distinctID, Properties: p}); err != nil {
		t.logger.Warn("failed to enqueue identify", zap.Error(err))
	}
}

// FeatureFlags evaluates every flag for distinctID.
func (t *PostHogTracker) FeatureFlags(distinctID string) (map[string]interface{}, error) {
	return t.client.GetAllFlags(posthog.FeatureFlagPayloadNoKey{DistinctId: distinctID})
}

// Close flushes pending events.
func (t *PostHogTracker) Close() error {
	return t.client.Close()
}

// NoopTracker discards events. It is used when no PostHog key is configured.
type NoopTracker struct{}

func (NoopTracker) Capture(string, string, map[string]interface{}) {}

func (NoopTracker) Identify(string, map[string]interface{}) {}

func (NoopTracker) FeatureFlags(string) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

func (NoopTracker) Close() error { return nil }
