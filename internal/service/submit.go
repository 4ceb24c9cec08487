package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"videosummary/internal/apperrors"
	"videosummary/internal/classifier"
	"videosummary/internal/resolver"
	"videosummary/internal/transcript"
	"videosummary/models"
)

// Submit classifies rawURL, resolves its media, fetches the transcript and
// makes the resulting session the active one. Nothing is committed unless
// every step succeeds.
func (s *Service) Submit(ctx context.Context, rawURL string) (*models.VideoSession, error) {
	const op = "service.Submit"

	cls, err := classifier.Classify(rawURL)
	if err != nil {
		return nil, apperrors.E(apperrors.InvalidInput, op, err)
	}
	log := s.Logger.WithFields(logrus.Fields{"platform": cls.Platform, "url": cls.URL})

	var (
		res        resolver.Resolution
		transcribe = cls.URL
	)
	switch {
	case cls.Direct:
	case cls.Platform == models.PlatformDouyin || cls.Platform == models.PlatformTikTok:
		res, err = s.resolve(ctx, cls.Platform, cls.Identifier)
		if err != nil {
			return nil, apperrors.E(apperrors.ResolutionFailure, op, err)
		}
		transcribe = res.MusicURL
		if transcribe == "" {
			transcribe = res.MediaURL
		}
	case cls.Platform == models.PlatformYouTube:
		res, err = s.resolve(ctx, cls.Platform, cls.Identifier)
		if err != nil {
			log.WithField("error", err).Warn("youtube resolution failed, falling back to the watch page")
			res = resolver.Resolution{MediaURL: classifier.YouTubeWatchURL(cls.Identifier)}
		}
	}

	detail, err := s.Transcripts.Fetch(ctx, transcribe)
	if err != nil {
		return nil, err
	}

	sess, err := s.build(ctx, cls, res, detail)
	if err != nil {
		return nil, err
	}
	sess.ChatMessages = []models.Message{s.Chat.WelcomeMessage()}

	c, err := s.Sessions.Replace(sess)
	if err != nil {
		return nil, err
	}
	s.persist(c, c.Revision())
	log.WithFields(logrus.Fields{"session_id": sess.ID, "subtitles": len(sess.OriginalSubtitles)}).Info("session created")
	return c.Snapshot(), nil
}

// build branches on the platform the transcript service detected.
func (s *Service) build(ctx context.Context, cls classifier.Result, res resolver.Resolution, d *transcript.Detail) (*models.VideoSession, error) {
	const op = "service.Submit"

	sess := models.NewVideoSession()
	sess.ID = d.ID
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	sess.Title = d.Title
	sess.PosterURL = d.Cover
	sess.OriginalURL = cls.URL
	sess.OriginalSubtitles = models.CloneSubtitles(d.Subtitles)

	switch {
	case d.Type == string(models.PlatformBilibili):
		r, err := s.resolve(ctx, models.PlatformBilibili, d.ID)
		if err != nil {
			return nil, apperrors.E(apperrors.ResolutionFailure, op, err)
		}
		sess.Platform = models.PlatformBilibili
		sess.ResolvedMediaURL = r.MediaURL
	case d.Type == string(models.PlatformYouTube):
		sess.Platform = models.PlatformYouTube
		sess.ResolvedMediaURL = res.MediaURL
		if sess.ResolvedMediaURL == "" {
			sess.ResolvedMediaURL = d.URL
		}
	case strings.Contains(d.URL, string(models.PlatformXiaohongshu)):
		r, err := s.resolve(ctx, models.PlatformXiaohongshu, d.ID)
		if err != nil {
			return nil, apperrors.E(apperrors.ResolutionFailure, op, err)
		}
		sess.Platform = models.PlatformXiaohongshu
		sess.ResolvedMediaURL = r.MediaURL
		if d.DescriptionText != "" {
			sess.Title = d.DescriptionText
		}
	case cls.Platform == models.PlatformDouyin:
		sess.Platform = models.PlatformDouyin
		sess.ResolvedMediaURL = res.MediaURL
		sess.MusicURL = res.MusicURL
		if res.Title != "" {
			sess.Title = res.Title
		}
	case cls.Platform == models.PlatformTikTok:
		sess.ID = cls.URL
		sess.Platform = models.PlatformTikTok
		sess.ResolvedMediaURL = res.MediaURL
		sess.MusicURL = res.MusicURL
		if res.Title != "" {
			sess.Title = res.Title
		}
	default:
		sess.ResolvedMediaURL = d.URL
		if sess.ResolvedMediaURL == "" {
			sess.ResolvedMediaURL = cls.URL
		}
		sess.Platform = models.PlatformGeneric
		if !cls.Direct {
			sess.Platform = models.ParsePlatform(d.Type)
		}
	}
	return sess, nil
}

func (s *Service) resolve(ctx context.Context, p models.Platform, identifier string) (resolver.Resolution, error) {
	r, ok := s.Resolvers.For(p)
	if !ok {
		return resolver.Resolution{}, apperrors.Errorf(apperrors.ResolutionFailure, "service.resolve", "no resolver for %s", p)
	}
	return r.Resolve(ctx, identifier)
}
