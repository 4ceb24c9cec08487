// Package transcript fetches subtitles and metadata for a media URL from the
// transcript service.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"videosummary/internal/apperrors"
	"videosummary/internal/httpclient"
	"videosummary/models"
)

// Detail is the transcript record. Type is the platform tag the service
// detected; URL is the canonical page URL.
type Detail struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Type            string            `json:"type"`
	Cover           string            `json:"cover"`
	Subtitles       []models.Subtitle `json:"subtitlesArray"`
	DescriptionText string            `json:"descriptionText"`
	URL             string            `json:"url"`
	Author          string            `json:"author"`
	Duration        float64           `json:"duration"`
	RawLang         string            `json:"rawLang"`
}

type result struct {
	Detail  *Detail `json:"detail"`
	Success bool    `json:"success"`
}

// Fetcher is what the service needs from this package.
type Fetcher interface {
	Fetch(ctx context.Context, mediaURL string) (*Detail, error)
}

// Client calls GET {base}/302/transcript.
type Client struct {
	BaseURL string
	APIKey  string
	// Lang is sent in the Lang header when set.
	Lang   string
	HTTP   httpclient.Doer
	Logger logrus.FieldLogger

	cache *expirable.LRU[string, *Detail]
}

// NewClient returns a client caching successful results for ttl. A ttl of
// zero disables the cache.
func NewClient(baseURL, apiKey string, doer httpclient.Doer, ttl time.Duration, logger logrus.FieldLogger) *Client {
	c := &Client{BaseURL: baseURL, APIKey: apiKey, HTTP: doer, Logger: logger}
	if ttl > 0 {
		c.cache = expirable.NewLRU[string, *Detail](512, nil, ttl)
	}
	return c
}

// Fetch returns the transcript for mediaURL. Every failure is a TranscriptFailure.
func (c *Client) Fetch(ctx context.Context, mediaURL string) (*Detail, error) {
	const op = "transcript.Fetch"
	if c.cache != nil {
		if d, ok := c.cache.Get(mediaURL); ok {
			return clone(d), nil
		}
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + "/302/transcript?" + url.Values{"url": {mediaURL}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.E(apperrors.TranscriptFailure, op, err)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	if c.Lang != "" {
		req.Header.Set("Lang", c.Lang)
	}

	started := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.logger().WithFields(logrus.Fields{"url": mediaURL, "error": err}).Error("transcript request failed")
		return nil, apperrors.E(apperrors.TranscriptFailure, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.Errorf(apperrors.TranscriptFailure, op, "status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var res result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, apperrors.E(apperrors.TranscriptFailure, op, fmt.Errorf("decode: %w", err))
	}
	if res.Detail == nil {
		return nil, apperrors.Errorf(apperrors.TranscriptFailure, op, "no transcript detail for %s", mediaURL)
	}

	c.logger().WithFields(logrus.Fields{
		"url":        mediaURL,
		"type":       res.Detail.Type,
		"subtitles":  len(res.Detail.Subtitles),
		"latency_ms": time.Since(started).Milliseconds(),
	}).Info("transcript fetched")

	if c.cache != nil {
		c.cache.Add(mediaURL, clone(res.Detail))
	}
	return res.Detail, nil
}

func (c *Client) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}

func clone(d *Detail) *Detail {
	out := *d
	out.Subtitles = models.CloneSubtitles(d.Subtitles)
	return &out
}
