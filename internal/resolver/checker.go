package resolver

import (
	"context"
	"io"
	"net/http"
	"time"

	"videosummary/internal/httpclient"
)

// Checker reports whether a media URL can still be fetched by requesting its
// first two bytes.
type Checker struct {
	Client  httpclient.Doer
	Timeout time.Duration
}

func NewChecker(client httpclient.Doer, timeout time.Duration) *Checker {
	return &Checker{Client: client, Timeout: timeout}
}

// IsUsable reports true iff the media host answers 200 or 206.
func (p *Checker) IsUsable(ctx context.Context, mediaURL string) bool {
	if mediaURL == "" {
		return false
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Range", "bytes=0-1")

	resp, err := p.Client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64))

	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusPartialContent
}
