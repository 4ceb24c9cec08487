package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"videosummary/internal/apperrors"
	"videosummary/internal/chat"
	"videosummary/internal/classifier"
	"videosummary/internal/resolver"
	"videosummary/internal/session"
	"videosummary/internal/subtitles"
	"videosummary/internal/summary"
	"videosummary/internal/upload"
	"videosummary/models"
)

// SetLanguage switches the display language of id. "Original" selects the
// source subtitles.
func (s *Service) SetLanguage(ctx context.Context, id, lang string) (*models.VideoSession, error) {
	if strings.TrimSpace(lang) == "" {
		return nil, apperrors.Errorf(apperrors.InvalidInput, "service.SetLanguage", "language is required")
	}
	c, err := s.container(ctx, id)
	if err != nil {
		return nil, err
	}
	rev := c.Update(models.SessionPatch{Language: models.String(lang)})
	s.persist(c, rev)
	return rev.Session, nil
}

// Translate translates the original subtitles of id into lang and selects
// lang. A newer translation into the same language supersedes this one.
func (s *Service) Translate(ctx context.Context, id, lang string) (*models.VideoSession, error) {
	const op = "service.Translate"
	if strings.TrimSpace(lang) == "" || lang == "Original" {
		return nil, apperrors.Errorf(apperrors.InvalidInput, op, "target language is required")
	}
	c, err := s.container(ctx, id)
	if err != nil {
		return nil, err
	}

	ticket := c.Begin(session.TranslationResource(lang))
	translated, err := s.Translator.Translate(ctx, c.Snapshot().OriginalSubtitles, lang)
	if err != nil {
		return nil, err
	}
	rev, ok := c.Commit(ticket, models.SessionPatch{
		Translations: map[string][]models.Subtitle{lang: translated},
		Language:     models.String(lang),
	})
	if !ok {
		s.Logger.WithFields(logrus.Fields{"session_id": id, "language": lang}).Info("translation superseded, result dropped")
		return rev.Session, nil
	}
	s.persist(c, rev)
	return rev.Session, nil
}

// GenerateBrief streams a brief summary of id to onEvent and stores the
// final text. onEvent failing, for example because the client went away,
// stops delivery but not generation.
func (s *Service) GenerateBrief(ctx context.Context, id string, onEvent func(summary.Event) error) (string, error) {
	c, err := s.container(ctx, id)
	if err != nil {
		return "", err
	}
	ticket := c.Begin(session.ResourceBrief)
	snap := c.Snapshot()
	events := s.Summaries.Brief(ctx, summary.BriefInput{
		Title:     snap.Title,
		Subtitles: snap.SubtitlesFor(snap.Language),
		Language:  snap.Language,
	})
	return s.drain(c, ticket, events, onEvent, func(text string) models.SessionPatch {
		return models.SessionPatch{Brief: models.String(text)}
	})
}

// GenerateDetail runs the three-stage detailed summary of id.
func (s *Service) GenerateDetail(ctx context.Context, id string, onEvent func(summary.Event) error) (string, error) {
	c, err := s.container(ctx, id)
	if err != nil {
		return "", err
	}
	ticket := c.Begin(session.ResourceDetail)
	snap := c.Snapshot()
	events := s.Summaries.Detailed(ctx, summary.DetailedInput{
		Subtitles: snap.SubtitlesFor(snap.Language),
		Language:  snap.Language,
	})
	return s.drain(c, ticket, events, onEvent, func(text string) models.SessionPatch {
		return models.SessionPatch{Detail: models.String(text)}
	})
}

func (s *Service) drain(c *session.Container, ticket session.Ticket, events <-chan summary.Event, onEvent func(summary.Event) error, patch func(string) models.SessionPatch) (string, error) {
	log := s.Logger.WithFields(logrus.Fields{"session_id": c.ID(), "resource": ticket.Resource})
	deliver := onEvent != nil
	var (
		text   string
		genErr error
	)
	for ev := range events {
		if deliver {
			if err := onEvent(ev); err != nil {
				log.WithError(err).Info("event delivery stopped")
				deliver = false
			}
		}
		switch ev.Kind {
		case summary.EventDone:
			text = ev.Text
		case summary.EventError:
			genErr = ev.Err
		}
	}
	if genErr != nil {
		return "", genErr
	}
	if text == "" {
		return "", apperrors.Errorf(apperrors.GenerationFailure, "service.summary", "generation ended without a result")
	}
	rev, ok := c.Commit(ticket, patch(text))
	if !ok {
		log.Info("summary superseded, result dropped")
		return text, nil
	}
	s.persist(c, rev)
	return text, nil
}

// SendChat sends text to the assistant of id, streaming reply chunks to
// onDelta.
func (s *Service) SendChat(ctx context.Context, id, text string, onDelta func(string) error) (chat.Result, error) {
	c, err := s.container(ctx, id)
	if err != nil {
		return chat.Result{}, err
	}
	res, err := s.Chat.Send(ctx, c, text, onDelta)
	if err != nil {
		return res, err
	}
	if res.Reply != nil {
		s.persist(c, res.Revision)
	}
	return res, nil
}

// ResetChat restores the welcome message in memory only; the stored history
// is left as it was.
func (s *Service) ResetChat(ctx context.Context, id string) (*models.VideoSession, error) {
	c, err := s.container(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Chat.Reset(c).Session, nil
}

// ClearChat resets the conversation and persists the cleared history.
func (s *Service) ClearChat(ctx context.Context, id string) (*models.VideoSession, error) {
	c, err := s.container(ctx, id)
	if err != nil {
		return nil, err
	}
	rev := s.Chat.Reset(c)
	s.persist(c, rev)
	return rev.Session, nil
}

// EnsureMedia makes sure the media URL of id is playable, re-resolving it
// when it expired. When every attempt fails the stale URL is returned along
// with a LivenessFailure, and the failure is recorded as a notification.
func (s *Service) EnsureMedia(ctx context.Context, id string, readOnly bool) (resolver.Outcome, error) {
	c, err := s.container(ctx, id)
	if err != nil {
		return resolver.Outcome{}, err
	}
	ticket := c.Begin(session.ResourceMedia)
	snap := c.Snapshot()
	target := resolver.Target{
		Platform:   snap.Platform,
		Identifier: identifierFor(snap),
		MediaURL:   snap.ResolvedMediaURL,
		ReadOnly:   readOnly,
	}

	out, err := s.Revalidator.Ensure(ctx, target)
	if err != nil {
		if !isCanceled(err) {
			s.Notifier.Record(id, apperrors.KindOf(err), "the video link has expired and could not be refreshed")
		}
		return out, err
	}
	if out.Refreshed {
		if rev, ok := c.Commit(ticket, models.SessionPatch{ResolvedMediaURL: models.String(out.MediaURL)}); ok {
			s.persist(c, rev)
		}
	}
	return out, nil
}

// identifierFor returns what the platform resolver expects for a session.
func identifierFor(v *models.VideoSession) string {
	switch v.Platform {
	case models.PlatformDouyin, models.PlatformTikTok:
		return v.OriginalURL
	case models.PlatformYouTube:
		if cls, err := classifier.Classify(v.OriginalURL); err == nil && cls.Platform == models.PlatformYouTube {
			return cls.Identifier
		}
		return v.ID
	default:
		return v.ID
	}
}

// Share writes a read-only snapshot of id and returns the share id.
func (s *Service) Share(ctx context.Context, id string) (string, error) {
	c, err := s.container(ctx, id)
	if err != nil {
		return "", err
	}
	return s.Shares.Save(models.NewShareSnapshot(c.Snapshot()))
}

// Upload hosts f through the upload service and submits the hosted URL.
func (s *Service) Upload(ctx context.Context, f upload.File, opts upload.Options) (*models.VideoSession, error) {
	mediaURL, err := s.Uploads.Upload(ctx, f, opts)
	if err != nil {
		return nil, err
	}
	return s.Submit(ctx, mediaURL)
}

// Subtitles returns the subtitles of id in lang, filtered by query.
func (s *Service) Subtitles(ctx context.Context, id, lang, query string) ([]models.Subtitle, error) {
	c, err := s.container(ctx, id)
	if err != nil {
		return nil, err
	}
	return subtitles.Filter(c.Snapshot().SubtitlesFor(lang), query), nil
}
