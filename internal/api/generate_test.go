package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barguru/internal/platform/analytics"
)

const testSessionID = "5f4c1f62-9a52-4a53-8f2a-0b3c7d9e1a10"

func postJSON(env *testEnv, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestGenerateCocktail(t *testing.T) {
	env := newTestEnv("")
	env.generator.chunks = []string{`{"name":"Smoke `, `Signal","tags":["smoky"]}`}

	rr := postJSON(env, "/api/generate-cocktail",
		`{"primaryIngredient":"mezcal","theme":" campfire ","type":"craft"}`, sessionCookie(testSessionID))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"name":"Smoke Signal","tags":["smoky"]}`, rr.Body.String())
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "text/plain"))

	// The brief is normalized before it reaches the prompt
	assert.Contains(t, env.generator.receivedPrompt, "Mezcal")
	assert.Contains(t, env.generator.receivedPrompt, "Theme or vibe to capture: campfire.")

	// The generation is tracked against the anonymous session
	require.Len(t, env.store.usage, 1)
	assert.Nil(t, env.store.usage[0].UserID)
	assert.Equal(t, testSessionID, env.store.usage[0].SessionID)
	assert.Contains(t, env.tracker.events, analytics.EventCocktailGenerated)
}

func TestGenerateCocktail_AnonymousQuota(t *testing.T) {
	env := newTestEnv("")
	env.generator.chunks = []string{`{}`}
	body := `{"primaryIngredient":"gin","theme":"spring","type":"classic"}`

	rr := postJSON(env, "/api/generate-cocktail", body, sessionCookie(testSessionID))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = postJSON(env, "/api/generate-cocktail", body, sessionCookie(testSessionID))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	resp := decodeBody(t, rr)
	assert.Equal(t, "Quota exceeded", resp["error"])
	assert.Equal(t, quotaMessage, resp["message"])
	assert.Equal(t, true, resp["requiresSignUp"])
	assert.Equal(t, float64(1), resp["usageCount"])
	assert.Contains(t, env.tracker.events, analytics.EventQuotaExceeded)

	// A different session still has its free generation
	rr = postJSON(env, "/api/generate-cocktail", body, sessionCookie("0e7a5f0c-36c4-4c0e-9d6c-5c1c1b8a2f33"))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGenerateCocktail_SignedInIsUnlimited(t *testing.T) {
	env := newTestEnv("user_1")
	env.generator.chunks = []string{`{}`}
	body := `{"primaryIngredient":"rum","theme":"tiki","type":"standard"}`

	for i := 0; i < 3; i++ {
		rr := postJSON(env, "/api/generate-cocktail", body, sessionCookie(testSessionID))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	require.Len(t, env.store.usage, 3)
	require.NotNil(t, env.store.usage[0].UserID)
	assert.Equal(t, "user_1", *env.store.usage[0].UserID)
}

func TestGenerateCocktail_TrackingFailureDoesNotBlock(t *testing.T) {
	env := newTestEnv("user_1")
	env.generator.chunks = []string{`{}`}
	env.store.trackError = errors.New("db down")

	rr := postJSON(env, "/api/generate-cocktail", `{"primaryIngredient":"rum","theme":"tiki","type":"standard"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGenerateCocktail_Validation(t *testing.T) {
	env := newTestEnv("")

	tests := []struct {
		name     string
		body     string
		wantPath string
	}{
		{name: "missing ingredient", body: `{"theme":"x","type":"classic"}`, wantPath: "primaryIngredient"},
		{name: "blank theme", body: `{"primaryIngredient":"gin","theme":"   ","type":"classic"}`, wantPath: "theme"},
		{name: "unknown type", body: `{"primaryIngredient":"gin","theme":"x","type":"tiki"}`, wantPath: "type"},
		{name: "other placeholder", body: `{"primaryIngredient":"other","theme":"x","type":"classic"}`, wantPath: "primaryIngredient"},
		{name: "padded other placeholder", body: `{"primaryIngredient":" Other ","theme":"x","type":"classic"}`, wantPath: "primaryIngredient"},
		{name: "wrong json type", body: `{"primaryIngredient":5,"theme":"x","type":"classic"}`, wantPath: "primaryIngredient"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(env, "/api/generate-cocktail", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)

			var resp struct {
				Error   string  `json:"error"`
				Details []Issue `json:"details"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, "Invalid cocktail input.", resp.Error)
			require.NotEmpty(t, resp.Details)
			assert.Equal(t, tt.wantPath, resp.Details[0].Path)
		})
	}

	rr := postJSON(env, "/api/generate-cocktail", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Unable to read request body.", decodeBody(t, rr)["error"])
	assert.Empty(t, env.store.usage)
	assert.Empty(t, env.generator.receivedPrompt)
}

func TestGenerateCocktail_OtherIngredientMessage(t *testing.T) {
	env := newTestEnv("")

	rr := postJSON(env, "/api/generate-cocktail", `{"primaryIngredient":"other","theme":"x","type":"classic"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp struct {
		Details []Issue `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []Issue{{Path: "primaryIngredient", Message: "describe the ingredient you want to feature"}}, resp.Details)

	// A described custom ingredient is accepted
	env.generator.chunks = []string{`{}`}
	rr = postJSON(env, "/api/generate-cocktail", `{"primaryIngredient":"smoked pineapple","theme":"x","type":"classic"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGenerateCocktail_ModelError(t *testing.T) {
	env := newTestEnv("user_1")
	env.generator.returnError = errors.New("model unavailable")

	rr := postJSON(env, "/api/generate-cocktail", `{"primaryIngredient":"gin","theme":"x","type":"classic"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "We couldn't generate a cocktail right now.", decodeBody(t, rr)["error"])
}

func TestGenerateCocktail_EmptyStream(t *testing.T) {
	env := newTestEnv("user_1")

	rr := postJSON(env, "/api/generate-cocktail", `{"primaryIngredient":"gin","theme":"x","type":"classic"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Empty(t, env.store.usage)
}

func TestGenerateCocktail_FailedGenerationKeepsFreeQuota(t *testing.T) {
	env := newTestEnv("")
	env.generator.returnError = errors.New("model unavailable")
	body := `{"primaryIngredient":"gin","theme":"spring","type":"classic"}`

	rr := postJSON(env, "/api/generate-cocktail", body, sessionCookie(testSessionID))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Empty(t, env.store.usage)

	// The retry still has the free generation
	env.generator.returnError = nil
	env.generator.chunks = []string{`{}`}
	rr = postJSON(env, "/api/generate-cocktail", body, sessionCookie(testSessionID))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, env.store.usage, 1)
}

func TestGenerateCocktail_ConcurrentAnonymousRequests(t *testing.T) {
	env := newTestEnv("")
	env.generator.chunks = []string{`{}`}
	body := `{"primaryIngredient":"gin","theme":"spring","type":"classic"}`

	const requests = 5
	codes := make(chan int, requests)
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes <- postJSON(env, "/api/generate-cocktail", body, sessionCookie(testSessionID)).Code
		}()
	}
	wg.Wait()
	close(codes)

	counts := map[int]int{}
	for code := range codes {
		counts[code]++
	}
	assert.Equal(t, 1, counts[http.StatusOK])
	assert.Equal(t, requests-1, counts[http.StatusTooManyRequests])
	assert.Len(t, env.store.usage, 1)
}

func jsonDecode(s string, out any) error {
	return json.Unmarshal([]byte(s), out)
}
