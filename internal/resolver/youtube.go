package resolver

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"

	"videosummary/internal/classifier"
	"videosummary/models"
)

type youtubeResponse struct {
	Data struct {
		Title   string `json:"title"`
		Formats []struct {
			URL string `json:"url"`
		} `json:"formats"`
	} `json:"data"`
}

// YouTubeResolver resolves a video id into a direct stream URL.
type YouTubeResolver struct {
	Upstream
	Checker *Checker
}

func NewYouTubeResolver(up Upstream, checker *Checker) *YouTubeResolver {
	return &YouTubeResolver{Upstream: up, Checker: checker}
}

func (r *YouTubeResolver) Platform() models.Platform { return models.PlatformYouTube }

func (r *YouTubeResolver) Describe() string { return "youtube video-info resolver" }

func (r *YouTubeResolver) Resolve(ctx context.Context, videoID string) (Resolution, error) {
	var resp youtubeResponse
	if err := r.getJSON(ctx, "/tools/youtube/web/get_video_info", url.Values{"video_id": {videoID}}, &resp); err != nil {
		r.logger().WithFields(logrus.Fields{"platform": models.PlatformYouTube, "video_id": videoID, "error": err}).Warn("resolution failed")
		return Resolution{}, err
	}
	if len(resp.Data.Formats) == 0 || resp.Data.Formats[0].URL == "" {
		return Resolution{}, fmt.Errorf("%w: youtube returned no formats for %s", ErrUnresolved, videoID)
	}
	return Resolution{MediaURL: resp.Data.Formats[0].URL, Title: resp.Data.Title}, nil
}

// IsUsable treats watch-page URLs as always usable; they play through the embed.
func (r *YouTubeResolver) IsUsable(ctx context.Context, mediaURL string) bool {
	if classifier.IsYouTubePage(mediaURL) {
		return true
	}
	return r.Checker.IsUsable(ctx, mediaURL)
}
