// Package resolver turns platform video references into currently playable
// media URLs and keeps those URLs alive during playback.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"videosummary/internal/httpclient"
	"videosummary/models"
)

var (
	// ErrUnresolved is the uniform failure of every resolver: network errors,
	// empty result lists and malformed shapes all normalize to it.
	ErrUnresolved = errors.New("media url unresolved")
	// ErrMissingCredential is a permanent resolution failure; retrying cannot fix it.
	ErrMissingCredential = fmt.Errorf("%w: missing api credential", ErrUnresolved)
)

// Resolution is the normalized output of a platform resolver.
type Resolution struct {
	MediaURL string
	MusicURL string
	Title    string
}

// Resolver is implemented once per platform.
type Resolver interface {
	Platform() models.Platform
	// Resolve converts identifier into a currently valid media URL. Every
	// failure wraps ErrUnresolved.
	Resolve(ctx context.Context, identifier string) (Resolution, error)
	// IsUsable checks whether a previously resolved URL can still be fetched.
	IsUsable(ctx context.Context, mediaURL string) bool
	Describe() string
}

// IsPermanent reports whether a resolution failure cannot be fixed by retrying.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrMissingCredential)
}

// Registry selects the resolver for a platform.
type Registry struct {
	resolvers map[models.Platform]Resolver
}

// NewRegistry indexes resolvers by the platform they report.
func NewRegistry(resolvers ...Resolver) *Registry {
	r := &Registry{resolvers: make(map[models.Platform]Resolver, len(resolvers))}
	for _, res := range resolvers {
		r.resolvers[res.Platform()] = res
	}
	return r
}

// For returns the resolver registered for p.
func (r *Registry) For(p models.Platform) (Resolver, bool) {
	res, ok := r.resolvers[p]
	return res, ok
}

// Upstream holds what every API-backed resolver needs to call its endpoint.
type Upstream struct {
	BaseURL string
	APIKey  string
	Client  httpclient.Doer
	Logger  logrus.FieldLogger
}

func (u Upstream) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if u.APIKey == "" {
		return ErrMissingCredential
	}
	endpoint := strings.TrimRight(u.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrUnresolved, err)
	}
	req.Header.Set("Authorization", "Bearer "+u.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := u.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: call %s: %v", ErrUnresolved, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", ErrUnresolved, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrUnresolved, path, err)
	}
	return nil
}

func (u Upstream) logger() logrus.FieldLogger {
	if u.Logger == nil {
		return logrus.StandardLogger()
	}
	return u.Logger
}

func first(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}
