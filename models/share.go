package models

// ShareSnapshot is the read-only copy of a session written by the share
// endpoint. It carries no chat history and never re-enters the session lifecycle.
type ShareSnapshot struct {
	ID                  string                `json:"id" validate:"required"`
	OriginalURL         string                `json:"originalVideoUrl"`
	RealVideoURL        string                `json:"realVideoUrl"`
	Title               string                `json:"title"`
	Poster              string                `json:"poster"`
	VideoType           string                `json:"videoType"`
	Language            string                `json:"language"`
	OriginalSubtitles   []Subtitle            `json:"originalSubtitles" validate:"dive"`
	TranslatedSubtitles map[string][]Subtitle `json:"translatedSubtitles"`
	Brief               string                `json:"brief"`
	Detail              string                `json:"detail"`
}

// NewShareSnapshot copies the shareable part of a session.
func NewShareSnapshot(s *VideoSession) ShareSnapshot {
	c := s.Clone()
	return ShareSnapshot{
		ID:                  c.ID,
		OriginalURL:         c.OriginalURL,
		RealVideoURL:        c.ResolvedMediaURL,
		Title:               c.Title,
		Poster:              c.PosterURL,
		VideoType:           string(c.Platform),
		Language:            c.Language,
		OriginalSubtitles:   c.OriginalSubtitles,
		TranslatedSubtitles: c.TranslatedSubtitles,
		Brief:               c.Brief,
		Detail:              c.Detail,
	}
}
