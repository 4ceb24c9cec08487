package models

import "time"

// VideoSession is the aggregate root of one summarization attempt.
type VideoSession struct {
	ID                  string                `json:"id"`
	OriginalURL         string                `json:"originalUrl"`
	ResolvedMediaURL    string                `json:"resolvedMediaUrl"`
	MusicURL            string                `json:"musicUrl,omitempty"` // audio track for douyin/tiktok
	Platform            Platform              `json:"platform"`
	Title               string                `json:"title"`
	PosterURL           string                `json:"posterUrl"`
	Language            string                `json:"language"`
	OriginalSubtitles   []Subtitle            `json:"originalSubtitles"`
	TranslatedSubtitles map[string][]Subtitle `json:"translatedSubtitles"`
	Brief               string                `json:"brief"`
	Detail              string                `json:"detail"`
	ChatMessages        []Message             `json:"chatMessages"`
	CreatedAt           time.Time             `json:"createdAt"`
	UpdatedAt           time.Time             `json:"updatedAt"`
}

// NewVideoSession returns a blank session stamped with the current time.
func NewVideoSession() *VideoSession {
	now := time.Now().UTC()
	return &VideoSession{
		TranslatedSubtitles: map[string][]Subtitle{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Clone returns a deep copy safe to hand out of a state container.
func (s *VideoSession) Clone() *VideoSession {
	if s == nil {
		return nil
	}
	out := *s
	out.OriginalSubtitles = CloneSubtitles(s.OriginalSubtitles)
	out.TranslatedSubtitles = make(map[string][]Subtitle, len(s.TranslatedSubtitles))
	for lang, subs := range s.TranslatedSubtitles {
		out.TranslatedSubtitles[lang] = CloneSubtitles(subs)
	}
	if s.ChatMessages != nil {
		out.ChatMessages = make([]Message, len(s.ChatMessages))
		copy(out.ChatMessages, s.ChatMessages)
	}
	return &out
}

// SubtitlesFor returns the translated subtitles for lang, or the originals
// when lang is empty, "Original" or not translated yet.
func (s *VideoSession) SubtitlesFor(lang string) []Subtitle {
	if lang != "" && lang != "Original" {
		if subs, ok := s.TranslatedSubtitles[lang]; ok && len(subs) > 0 {
			return subs
		}
	}
	return s.OriginalSubtitles
}

// SessionPatch is a partial field set merged into a session by a single
// update. Nil fields are left untouched.
type SessionPatch struct {
	ID                *string
	OriginalURL       *string
	ResolvedMediaURL  *string
	MusicURL          *string
	Platform          *Platform
	Title             *string
	PosterURL         *string
	Language          *string
	OriginalSubtitles []Subtitle
	// Translations are merged per language; existing languages not named here are kept.
	Translations map[string][]Subtitle
	Brief        *string
	Detail       *string
	ChatMessages []Message
	// ResetChat replaces the chat history even when ChatMessages is empty.
	ResetChat bool
}

// Apply merges the patch into s. It does not touch the timestamps.
func (p SessionPatch) Apply(s *VideoSession) {
	if p.ID != nil {
		s.ID = *p.ID
	}
	if p.OriginalURL != nil {
		s.OriginalURL = *p.OriginalURL
	}
	if p.ResolvedMediaURL != nil {
		s.ResolvedMediaURL = *p.ResolvedMediaURL
	}
	if p.MusicURL != nil {
		s.MusicURL = *p.MusicURL
	}
	if p.Platform != nil {
		s.Platform = *p.Platform
	}
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.PosterURL != nil {
		s.PosterURL = *p.PosterURL
	}
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.OriginalSubtitles != nil {
		s.OriginalSubtitles = CloneSubtitles(p.OriginalSubtitles)
	}
	if len(p.Translations) > 0 {
		if s.TranslatedSubtitles == nil {
			s.TranslatedSubtitles = map[string][]Subtitle{}
		}
		for lang, subs := range p.Translations {
			s.TranslatedSubtitles[lang] = CloneSubtitles(subs)
		}
	}
	if p.Brief != nil {
		s.Brief = *p.Brief
	}
	if p.Detail != nil {
		s.Detail = *p.Detail
	}
	if p.ChatMessages != nil || p.ResetChat {
		msgs := make([]Message, len(p.ChatMessages))
		copy(msgs, p.ChatMessages)
		s.ChatMessages = msgs
	}
}

// String returns a pointer to v, for building patches.
func String(v string) *string { return &v }

// PlatformPtr returns a pointer to p, for building patches.
func PlatformPtr(p Platform) *Platform { return &p }
