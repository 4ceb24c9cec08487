// Package subtitles renders subtitle sequences as downloadable files and
// filters them by text.
package subtitles

import (
	"fmt"
	"math"
	"strings"

	"videosummary/models"
)

type Format string

const (
	FormatVTT Format = "vtt"
	FormatSRT Format = "srt"
	FormatTXT Format = "txt"
)

// ParseFormat accepts vtt, srt or txt in any case; empty means vtt.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatVTT, nil
	case FormatVTT, FormatSRT, FormatTXT:
		return f, nil
	}
	return "", fmt.Errorf("unsupported subtitle format %q", s)
}

func (f Format) ContentType() string {
	if f == FormatVTT {
		return "text/vtt; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// Render writes subs in format f.
func Render(subs []models.Subtitle, f Format) (string, error) {
	var b strings.Builder
	switch f {
	case FormatVTT:
		b.WriteString("WEBVTT\n\n")
		for _, s := range subs {
			fmt.Fprintf(&b, "%s --> %s\n%s\n\n", timestamp(s.StartTime, '.'), timestamp(s.End, '.'), s.Text)
		}
	case FormatSRT:
		for i, s := range subs {
			fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, timestamp(s.StartTime, ','), timestamp(s.End, ','), s.Text)
		}
	case FormatTXT:
		for _, s := range subs {
			b.WriteString(s.Text)
			b.WriteString("\n\n")
		}
	default:
		return "", fmt.Errorf("unsupported subtitle format %q", f)
	}
	return b.String(), nil
}

// Filter keeps the entries whose text contains query, ignoring case. An
// empty query keeps everything.
func Filter(subs []models.Subtitle, query string) []models.Subtitle {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return subs
	}
	out := make([]models.Subtitle, 0)
	for _, s := range subs {
		if strings.Contains(strings.ToLower(s.Text), query) {
			out = append(out, s)
		}
	}
	return out
}

// timestamp formats seconds as HH:MM:SS<sep>mmm.
func timestamp(seconds float64, sep byte) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, sep, ms%1000)
}
