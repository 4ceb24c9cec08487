package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// HostRateLimiter keeps one token bucket per upstream host.
type HostRateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rps      rate.Limit
	burst    int
}

// NewHostRateLimiter allows rps requests per second per host. rps <= 0 disables limiting.
func NewHostRateLimiter(rps float64, burst int) *HostRateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &HostRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      limit,
		burst:    burst,
	}
}

// WaitForHost blocks until a request to urlStr's host is allowed or ctx ends.
func (h *HostRateLimiter) WaitForHost(ctx context.Context, urlStr string) error {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return err
	}
	if parsedURL.Host == "" {
		return &url.Error{Op: "parse", URL: urlStr, Err: errors.New("missing host in URL")}
	}
	return h.getLimiterForHost(parsedURL.Host).Wait(ctx)
}

func (h *HostRateLimiter) getLimiterForHost(host string) *rate.Limiter {
	h.mu.RLock()
	limiter, exists := h.limiters[host]
	h.mu.RUnlock()
	if exists {
		return limiter
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if limiter, exists := h.limiters[host]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(h.rps, h.burst)
	h.limiters[host] = limiter
	return limiter
}

// Doer is the subset of *http.Client used by the upstream clients.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// LimitedClient waits on the host limiter before every request.
type LimitedClient struct {
	Client  Doer
	Limiter *HostRateLimiter
}

// Do implements Doer.
func (c *LimitedClient) Do(req *http.Request) (*http.Response, error) {
	if c.Limiter != nil {
		if err := c.Limiter.WaitForHost(req.Context(), req.URL.String()); err != nil {
			return nil, err
		}
	}
	return c.Client.Do(req)
}
