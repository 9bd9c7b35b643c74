package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSetsIdentificationHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewWithHTTPClient(srv.Client(), Options{UserAgent: "test-agent/1.0"})
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "test-agent/1.0", got.Get("User-Agent"))
	assert.Equal(t, "test-agent/1.0", got.Get("HH-User-Agent"))
	assert.Equal(t, "application/json", got.Get("Accept"))
}

func TestDoIsSingleAttempt(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewWithHTTPClient(srv.Client(), Options{})
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestPaceSpacesRequestsPerHost(t *testing.T) {
	c := NewWithHTTPClient(http.DefaultClient, Options{MinInterval: 40 * time.Millisecond})
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, c.pace(ctx, "api.example"))
	require.NoError(t, c.pace(ctx, "api.example"))
	require.NoError(t, c.pace(ctx, "api.example"))
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)

	// another host gets its own slot
	other := time.Now()
	require.NoError(t, c.pace(ctx, "other.example"))
	assert.Less(t, time.Since(other), 40*time.Millisecond)
}

func TestPaceHonoursContext(t *testing.T) {
	c := NewWithHTTPClient(http.DefaultClient, Options{MinInterval: time.Hour})
	require.NoError(t, c.pace(context.Background(), "slow.example"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.pace(ctx, "slow.example"), context.Canceled)
}
