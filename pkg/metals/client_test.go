package metals

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/latest", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "USD", r.URL.Query().Get("base"))
		assert.Equal(t, "XAU,XAG", r.URL.Query().Get("currencies"))
		w.WriteHeader(status)
		w.Write([]byte(body)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_InvertsRates(t *testing.T) {
	// 1/0.0002 = 5000 gold, 1/0.0111... ≈ 90 silver.
	srv := newTestServer(t, http.StatusOK,
		`{"success":true,"rates":{"USDXAU":0.0002,"USDXAG":0.011111}}`)

	c := NewClient("test-key", WithBaseURL(srv.URL))
	gold, silver, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5000.0, gold)
	assert.Equal(t, 90.0, silver)
}

func TestFetch_RoundsToWholeDollars(t *testing.T) {
	// 1/0.000203 = 4926.1... rounds to 4926.
	srv := newTestServer(t, http.StatusOK,
		`{"success":true,"rates":{"USDXAU":0.000203,"USDXAG":0.0112}}`)

	c := NewClient("test-key", WithBaseURL(srv.URL))
	gold, silver, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4926.0, gold)
	assert.Equal(t, 89.0, silver)
}

func TestFetch_MissingSilverIsZero(t *testing.T) {
	srv := newTestServer(t, http.StatusOK,
		`{"success":true,"rates":{"USDXAU":0.0002}}`)

	c := NewClient("test-key", WithBaseURL(srv.URL))
	gold, silver, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5000.0, gold)
	assert.Zero(t, silver)
}

func TestFetch_MissingGoldFails(t *testing.T) {
	srv := newTestServer(t, http.StatusOK,
		`{"success":true,"rates":{"USDXAG":0.0112}}`)

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, _, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing USDXAU")
}

func TestFetch_UpstreamFailureFlag(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"success":false}`)

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, _, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream reported failure")
}

func TestFetch_Non200(t *testing.T) {
	srv := newTestServer(t, http.StatusTooManyRequests, `{"error":"quota"}`)

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, _, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 429")
}

func TestFetch_RequiresAPIKey(t *testing.T) {
	c := NewClient("")
	_, _, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key not configured")
}

func TestFetch_ContextCancelled(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"success":true,"rates":{"USDXAU":0.0002}}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, _, err := c.Fetch(ctx)
	require.Error(t, err)
}
