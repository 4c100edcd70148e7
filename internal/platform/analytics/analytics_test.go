package analytics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNoopTracker(t *testing.T) {
	var tr Tracker = NoopTracker{}
	tr.Capture("u", EventCocktailGenerated, nil)
	tr.Identify("u", map[string]interface{}{"email": "a@example.com"})
	flags, err := tr.FeatureFlags("u")
	require.NoError(t, err)
	assert.Empty(t, flags)
	assert.NoError(t, tr.Close())
}

func TestPostHogTracker_Capture(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(data))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	tr, err := NewPostHogTracker("phc_test", server.URL, time.Hour, zap.NewNop())
	require.NoError(t, err)

	tr.Capture("session-1", EventCocktailGenerated, map[string]interface{}{"type": "craft"})
	require.NoError(t, tr.Close())

	mu.Lock()
	defer mu.Unlock()
	joined := strings.Join(bodies, "\n")
	assert.Contains(t, joined, EventCocktailGenerated)
	assert.Contains(t, joined, "session-1")
}
