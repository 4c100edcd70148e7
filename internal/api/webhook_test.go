package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"

	"barguru/internal/cocktail"
	"barguru/internal/platform/analytics"
	"barguru/internal/platform/clerk"
)

const webhookSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

func newWebhookEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv("")
	verifier, err := clerk.NewWebhookVerifier(webhookSecret)
	require.NoError(t, err)
	env.handler.Webhooks = verifier
	return env
}

func postWebhook(t *testing.T, env *testEnv, payload string, signed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/clerk", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	if signed {
		wh, err := svix.NewWebhook(webhookSecret)
		require.NoError(t, err)
		now := time.Now()
		sig, err := wh.Sign("msg_test", now, []byte(payload))
		require.NoError(t, err)
		req.Header.Set("svix-id", "msg_test")
		req.Header.Set("svix-timestamp", strconv.FormatInt(now.Unix(), 10))
		req.Header.Set("svix-signature", sig)
	}
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

const userCreated = `{"type":"user.created","data":{"id":"user_1","first_name":"Ada","last_name":"Lovelace","primary_email_address_id":"em_1","email_addresses":[{"id":"em_1","email_address":"ada@example.com"}]}}`

func TestClerkWebhook_UserLifecycle(t *testing.T) {
	env := newWebhookEnv(t)

	rr := postWebhook(t, env, userCreated, true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Webhook received", rr.Body.String())
	require.Contains(t, env.store.users, "user_1")
	assert.Equal(t, "ada@example.com", env.store.users["user_1"].Email)
	assert.Equal(t, []string{"user_1"}, env.tracker.identified)
	assert.Contains(t, env.tracker.events, analytics.EventUserSignedUp)

	updated := `{"type":"user.updated","data":{"id":"user_1","first_name":"Augusta","primary_email_address_id":"em_2","email_addresses":[{"id":"em_2","email_address":"augusta@example.com"}],"public_metadata":{"isPremium":true}}}`
	rr = postWebhook(t, env, updated, true)
	require.Equal(t, http.StatusOK, rr.Code)
	user := env.store.users["user_1"]
	assert.Equal(t, "augusta@example.com", user.Email)
	assert.Equal(t, "Augusta", user.FirstName)
	assert.True(t, user.IsPremium)

	_, err := env.store.SaveCocktailForUser(context.Background(), "user_1", cocktail.Cocktail{Name: "Kept"}, nil, nil)
	require.NoError(t, err)

	rr = postWebhook(t, env, `{"type":"user.deleted","data":{"id":"user_1","deleted":true}}`, true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, env.store.users, "user_1")
	assert.Empty(t, env.store.saved)
}

func TestClerkWebhook_Rejections(t *testing.T) {
	env := newWebhookEnv(t)

	// Missing svix headers
	rr := postWebhook(t, env, userCreated, false)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Error occurred -- no svix headers", rr.Body.String())

	// Bad signature
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/clerk", bytes.NewBufferString(userCreated))
	req.Header.Set("svix-id", "msg_test")
	req.Header.Set("svix-timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	req.Header.Set("svix-signature", "v1,bm90LWEtc2lnbmF0dXJl")
	rr = httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Error occurred", rr.Body.String())

	// Verified but malformed
	for _, payload := range []string{
		`{"type":"user.created"}`,
		`{"type":"user.created","data":null}`,
		`{"type":"user.created","data":"user_1"}`,
		`{"type":"user.created","data":[]}`,
		`{"data":{"id":"user_1"}}`,
	} {
		rr = postWebhook(t, env, payload, true)
		assert.Equal(t, http.StatusBadRequest, rr.Code, payload)
		assert.Equal(t, "Invalid payload", rr.Body.String(), payload)
	}

	assert.Empty(t, env.store.users)
}

func TestClerkWebhook_IgnoredEvents(t *testing.T) {
	env := newWebhookEnv(t)

	// Users without an email are not stored
	rr := postWebhook(t, env, `{"type":"user.created","data":{"id":"user_2","email_addresses":[]}}`, true)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = postWebhook(t, env, `{"type":"session.created","data":{"id":"sess_1"}}`, true)
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.Empty(t, env.store.users)
	assert.Empty(t, env.tracker.events)
}

func TestClerkWebhook_StoreError(t *testing.T) {
	env := newWebhookEnv(t)
	env.store.SetError(errors.New("db down"))

	rr := postWebhook(t, env, userCreated, true)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestClerkWebhook_NotConfigured(t *testing.T) {
	env := newTestEnv("")

	rr := postWebhook(t, env, userCreated, true)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
