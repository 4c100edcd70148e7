package clerk

import (
	"encoding/json"
	"fmt"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"
)

// Webhook event types handled by BarGuru.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// WebhookEvent is the envelope Clerk posts to webhook endpoints.
type WebhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// UserData is the payload of user.* events.
type UserData struct {
	ID                    string         `json:"id"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	PrimaryEmailAddressID *string        `json:"primary_email_address_id"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
	PublicMetadata        map[string]any `json:"public_metadata"`
	Deleted               bool           `json:"deleted"`
}

// Premium reads the isPremium flag from public metadata. ok is false when the
// flag is absent or not a boolean.
func (d UserData) Premium() (premium, ok bool) {
	premium, ok = d.PublicMetadata["isPremium"].(bool)
	return premium, ok
}

// EmailAddress is one of a user's addresses in a webhook payload.
type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// Profile converts the event payload to a Profile. The primary address is
// preferred and the first address is used otherwise.
func (d UserData) Profile() Profile {
	p := Profile{ID: d.ID}
	if d.FirstName != nil {
		p.FirstName = *d.FirstName
	}
	if d.LastName != nil {
		p.LastName = *d.LastName
	}
	for _, e := range d.EmailAddresses {
		if d.PrimaryEmailAddressID != nil && e.ID == *d.PrimaryEmailAddressID {
			p.Email = e.EmailAddress
			break
		}
		if p.Email == "" {
			p.Email = e.EmailAddress
		}
	}
	return p
}

// WebhookVerifier checks svix signatures on Clerk webhooks.
type WebhookVerifier struct {
	wh *svix.Webhook
}

// NewWebhookVerifier creates a verifier for the endpoint's signing secret.
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook secret: %w", err)
	}
	return &WebhookVerifier{wh: wh}, nil
}

// Verify checks the svix headers against payload and decodes the event.
func (v *WebhookVerifier) Verify(payload []byte, headers http.Header) (*WebhookEvent, error) {
	if err := v.wh.Verify(payload, headers); err != nil {
		return nil, fmt.Errorf("webhook verification failed: %w", err)
	}
	var evt WebhookEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}
	return &evt, nil
}

// HasSvixHeaders reports whether all svix signature headers are present.
func HasSvixHeaders(h http.Header) bool {
	return h.Get("svix-id") != "" && h.Get("svix-timestamp") != "" && h.Get("svix-signature") != ""
}
