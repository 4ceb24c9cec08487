package resolver

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"

	"videosummary/models"
)

// awemeResponse is the shape shared by the douyin and tiktok share-url APIs.
type awemeResponse struct {
	Data struct {
		AwemeDetails []struct {
			Music struct {
				PlayURL struct {
					URLList []string `json:"url_list"`
				} `json:"play_url"`
			} `json:"music"`
			Video struct {
				PlayAddr struct {
					URLList []string `json:"url_list"`
				} `json:"play_addr"`
			} `json:"video"`
			ShareInfo struct {
				ShareTitle string `json:"share_title"`
			} `json:"share_info"`
		} `json:"aweme_details"`
	} `json:"data"`
}

// AwemeResolver resolves douyin and tiktok share URLs.
type AwemeResolver struct {
	Upstream
	Checker  *Checker
	platform models.Platform
	path     string
}

// NewDouyinResolver resolves douyin share URLs.
func NewDouyinResolver(up Upstream, checker *Checker) *AwemeResolver {
	return &AwemeResolver{Upstream: up, Checker: checker, platform: models.PlatformDouyin, path: "/tools/douyin/web/fetch_one_video_by_share_url"}
}

// NewTikTokResolver resolves tiktok share URLs.
func NewTikTokResolver(up Upstream, checker *Checker) *AwemeResolver {
	return &AwemeResolver{Upstream: up, Checker: checker, platform: models.PlatformTikTok, path: "/tools/tiktok/app/fetch_one_video_by_share_url"}
}

func (r *AwemeResolver) Platform() models.Platform { return r.platform }

func (r *AwemeResolver) Describe() string {
	return fmt.Sprintf("%s share-url resolver", r.platform)
}

// Resolve takes the share URL as identifier.
func (r *AwemeResolver) Resolve(ctx context.Context, shareURL string) (Resolution, error) {
	var resp awemeResponse
	if err := r.getJSON(ctx, r.path, url.Values{"share_url": {shareURL}}, &resp); err != nil {
		r.logger().WithFields(logrus.Fields{"platform": r.platform, "error": err}).Warn("resolution failed")
		return Resolution{}, err
	}
	if len(resp.Data.AwemeDetails) == 0 {
		return Resolution{}, fmt.Errorf("%w: %s returned no aweme details", ErrUnresolved, r.platform)
	}
	detail := resp.Data.AwemeDetails[0]
	res := Resolution{
		MediaURL: first(detail.Video.PlayAddr.URLList),
		MusicURL: first(detail.Music.PlayURL.URLList),
		Title:    detail.ShareInfo.ShareTitle,
	}
	if res.MediaURL == "" {
		return Resolution{}, fmt.Errorf("%w: %s returned an empty play address", ErrUnresolved, r.platform)
	}
	return res, nil
}

func (r *AwemeResolver) IsUsable(ctx context.Context, mediaURL string) bool {
	return r.Checker.IsUsable(ctx, mediaURL)
}
