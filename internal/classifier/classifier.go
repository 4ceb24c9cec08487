// Package classifier detects which platform a submitted URL belongs to.
// It performs no I/O.
package classifier

import (
	"errors"
	"net/url"
	"strings"

	"videosummary/models"
)

var (
	// ErrInvalidURL is returned for input that is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidIdentifier is returned when a platform URL lacks its video id.
	ErrInvalidIdentifier = errors.New("missing video identifier")
)

// directMediaMarker is injected into already-resolved douyin/tiktok media URLs.
const directMediaMarker = "mime_type=video_mp4"

// Result is the outcome of classifying a URL.
type Result struct {
	Platform models.Platform
	// Identifier is the value handed to the platform resolver: the video id
	// for youtube, the share URL for douyin/tiktok, the URL itself otherwise.
	Identifier string
	// URL is the trimmed input.
	URL string
	// Direct is set when the URL already points at playable media.
	Direct bool
}

// Classify detects the platform of rawURL. Bilibili and Xiaohongshu links are
// classified as generic here; the transcript service tells them apart later.
func Classify(rawURL string) (Result, error) {
	raw := strings.TrimSpace(rawURL)
	u, err := url.Parse(raw)
	if raw == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Result{}, ErrInvalidURL
	}

	if IsDirectMedia(raw) {
		return Result{Platform: models.PlatformGeneric, Identifier: raw, URL: raw, Direct: true}, nil
	}

	switch {
	case strings.Contains(raw, "douyin"):
		return Result{Platform: models.PlatformDouyin, Identifier: raw, URL: raw}, nil
	case strings.Contains(raw, "tiktok"):
		return Result{Platform: models.PlatformTikTok, Identifier: raw, URL: raw}, nil
	case strings.Contains(raw, "youtube.com"):
		id := u.Query().Get("v")
		if id == "" {
			return Result{}, ErrInvalidIdentifier
		}
		return Result{Platform: models.PlatformYouTube, Identifier: id, URL: raw}, nil
	case strings.EqualFold(u.Hostname(), "youtu.be"):
		id := strings.Trim(u.Path, "/")
		if id == "" {
			return Result{}, ErrInvalidIdentifier
		}
		return Result{Platform: models.PlatformYouTube, Identifier: id, URL: raw}, nil
	}
	return Result{Platform: models.PlatformGeneric, Identifier: raw, URL: raw}, nil
}

// IsDirectMedia reports whether raw already points at playable media and
// must bypass platform resolution.
func IsDirectMedia(raw string) bool {
	return strings.HasSuffix(raw, ".mp3") || strings.Contains(raw, directMediaMarker)
}

// YouTubeWatchURL is the embeddable page URL used when YouTube resolution fails.
func YouTubeWatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
}

// IsYouTubePage reports whether mediaURL is a YouTube page rather than a
// direct stream. Such URLs are played through the embed and never checked.
func IsYouTubePage(mediaURL string) bool {
	return strings.Contains(mediaURL, "youtube.com")
}
