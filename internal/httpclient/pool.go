package httpclient

import (
	"net/http"
	"time"
)

// sharedTransport is reused by every pooled client so upstream connections
// are kept alive across resolver, transcript and translation calls.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        50,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     120 * time.Second,
}

// NewPooledClient creates an http.Client sharing the package connection pool.
// A zero timeout means no client-side timeout (streaming calls).
func NewPooledClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: sharedTransport,
	}
}
