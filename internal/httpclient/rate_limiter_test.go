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

func TestHostRateLimiter_SeparateBucketsPerHost(t *testing.T) {
	limiter := NewHostRateLimiter(1, 1)
	ctx := context.Background()

	require.NoError(t, limiter.WaitForHost(ctx, "https://a.example.com/x"))
	require.NoError(t, limiter.WaitForHost(ctx, "https://b.example.com/x"))

	// The bucket for a.example.com is empty now, a short deadline must expire.
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.Error(t, limiter.WaitForHost(short, "https://a.example.com/y"))
}

func TestHostRateLimiter_RejectsMissingHost(t *testing.T) {
	limiter := NewHostRateLimiter(0, 0)
	assert.Error(t, limiter.WaitForHost(context.Background(), "/relative/path"))
}

func TestLimitedClient_Do(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := &LimitedClient{Client: NewPooledClient(time.Second), Limiter: NewHostRateLimiter(0, 0)}
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
