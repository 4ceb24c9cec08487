package resolver

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"

	"videosummary/models"
)

type realURLResponse struct {
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
}

// GenericResolver serves the platforms handled by the shared real-url
// endpoint (bilibili, xiaohongshu). The identifier is the platform video id.
type GenericResolver struct {
	Upstream
	Checker  *Checker
	platform models.Platform
}

func NewGenericResolver(platform models.Platform, up Upstream, checker *Checker) *GenericResolver {
	return &GenericResolver{Upstream: up, Checker: checker, platform: platform}
}

func (r *GenericResolver) Platform() models.Platform { return r.platform }

func (r *GenericResolver) Describe() string {
	return fmt.Sprintf("%s real-url resolver", r.platform)
}

func (r *GenericResolver) Resolve(ctx context.Context, id string) (Resolution, error) {
	var resp realURLResponse
	query := url.Values{"platform": {string(r.platform)}, "id": {id}}
	if err := r.getJSON(ctx, "/tools/video/real_url", query, &resp); err != nil {
		r.logger().WithFields(logrus.Fields{"platform": r.platform, "id": id, "error": err}).Warn("resolution failed")
		return Resolution{}, err
	}
	if resp.Data.URL == "" {
		return Resolution{}, fmt.Errorf("%w: %s returned an empty url for %s", ErrUnresolved, r.platform, id)
	}
	return Resolution{MediaURL: resp.Data.URL}, nil
}

func (r *GenericResolver) IsUsable(ctx context.Context, mediaURL string) bool {
	return r.Checker.IsUsable(ctx, mediaURL)
}

// DirectResolver handles generic and direct URLs: the URL is its own media
// and is assumed caller-controlled, so it is never checked.
type DirectResolver struct{}

func (DirectResolver) Platform() models.Platform { return models.PlatformGeneric }

func (DirectResolver) Describe() string { return "direct media url" }

func (DirectResolver) Resolve(_ context.Context, rawURL string) (Resolution, error) {
	if rawURL == "" {
		return Resolution{}, fmt.Errorf("%w: empty direct url", ErrUnresolved)
	}
	return Resolution{MediaURL: rawURL}, nil
}

func (DirectResolver) IsUsable(context.Context, string) bool { return true }
