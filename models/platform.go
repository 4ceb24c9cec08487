package models

// Platform identifies the upstream video platform a session was created from.
// It decides which resolver and liveness policy apply to the session.
type Platform string

const (
	PlatformYouTube     Platform = "youtube"
	PlatformTikTok      Platform = "tiktok"
	PlatformDouyin      Platform = "douyin"
	PlatformBilibili    Platform = "bilibili"
	PlatformXiaohongshu Platform = "xiaohongshu"
	PlatformGeneric     Platform = "generic"
)

// Platforms lists every supported platform.
var Platforms = []Platform{
	PlatformYouTube,
	PlatformTikTok,
	PlatformDouyin,
	PlatformBilibili,
	PlatformXiaohongshu,
	PlatformGeneric,
}

// ParsePlatform maps a transcript-service type tag onto a Platform.
// Unknown tags fall back to PlatformGeneric.
func ParsePlatform(tag string) Platform {
	for _, p := range Platforms {
		if string(p) == tag {
			return p
		}
	}
	return PlatformGeneric
}

func (p Platform) String() string {
	return string(p)
}
