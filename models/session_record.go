package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SessionRecord is the row shape of a persisted session in the sessions table.
// Subtitles, translations and chat history are stored as JSONB columns.
type SessionRecord struct {
	ID                  string          `json:"id"`
	OriginalURL         string          `json:"original_url"`
	ResolvedMediaURL    string          `json:"resolved_media_url"`
	MusicURL            *string         `json:"music_url,omitempty"` // Nullable TEXT
	Platform            string          `json:"platform"`
	Title               string          `json:"title"`
	PosterURL           *string         `json:"poster_url,omitempty"` // Nullable TEXT
	Language            string          `json:"language"`
	OriginalSubtitles   json.RawMessage `json:"original_subtitles,omitempty"`   // JSONB
	TranslatedSubtitles json.RawMessage `json:"translated_subtitles,omitempty"` // JSONB
	Brief               string          `json:"brief"`
	Detail              string          `json:"detail"`
	ChatMessages        json.RawMessage `json:"chat_messages,omitempty"` // JSONB
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// NewSessionRecord converts a session into its row shape.
func NewSessionRecord(s *VideoSession) (SessionRecord, error) {
	rec := SessionRecord{
		ID:               s.ID,
		OriginalURL:      s.OriginalURL,
		ResolvedMediaURL: s.ResolvedMediaURL,
		Platform:         string(s.Platform),
		Title:            s.Title,
		Language:         s.Language,
		Brief:            s.Brief,
		Detail:           s.Detail,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	if s.MusicURL != "" {
		rec.MusicURL = String(s.MusicURL)
	}
	if s.PosterURL != "" {
		rec.PosterURL = String(s.PosterURL)
	}

	var err error
	if rec.OriginalSubtitles, err = json.Marshal(nonNilSubtitles(s.OriginalSubtitles)); err != nil {
		return SessionRecord{}, fmt.Errorf("marshal original subtitles: %w", err)
	}
	translations := s.TranslatedSubtitles
	if translations == nil {
		translations = map[string][]Subtitle{}
	}
	if rec.TranslatedSubtitles, err = json.Marshal(translations); err != nil {
		return SessionRecord{}, fmt.Errorf("marshal translated subtitles: %w", err)
	}
	msgs := s.ChatMessages
	if msgs == nil {
		msgs = []Message{}
	}
	if rec.ChatMessages, err = json.Marshal(msgs); err != nil {
		return SessionRecord{}, fmt.Errorf("marshal chat messages: %w", err)
	}
	return rec, nil
}

// Session converts the row back into a session.
func (r SessionRecord) Session() (*VideoSession, error) {
	s := &VideoSession{
		ID:                  r.ID,
		OriginalURL:         r.OriginalURL,
		ResolvedMediaURL:    r.ResolvedMediaURL,
		Platform:            ParsePlatform(r.Platform),
		Title:               r.Title,
		Language:            r.Language,
		Brief:               r.Brief,
		Detail:              r.Detail,
		TranslatedSubtitles: map[string][]Subtitle{},
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
	if r.MusicURL != nil {
		s.MusicURL = *r.MusicURL
	}
	if r.PosterURL != nil {
		s.PosterURL = *r.PosterURL
	}
	if len(r.OriginalSubtitles) > 0 {
		if err := json.Unmarshal(r.OriginalSubtitles, &s.OriginalSubtitles); err != nil {
			return nil, fmt.Errorf("unmarshal original subtitles of %s: %w", r.ID, err)
		}
	}
	if len(r.TranslatedSubtitles) > 0 {
		if err := json.Unmarshal(r.TranslatedSubtitles, &s.TranslatedSubtitles); err != nil {
			return nil, fmt.Errorf("unmarshal translated subtitles of %s: %w", r.ID, err)
		}
	}
	if len(r.ChatMessages) > 0 {
		if err := json.Unmarshal(r.ChatMessages, &s.ChatMessages); err != nil {
			return nil, fmt.Errorf("unmarshal chat messages of %s: %w", r.ID, err)
		}
	}
	return s, nil
}

func nonNilSubtitles(subs []Subtitle) []Subtitle {
	if subs == nil {
		return []Subtitle{}
	}
	return subs
}
