// Package service implements the session operations behind the HTTP API:
// submission, translation, summaries, chat, liveness and sharing.
package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"videosummary/internal/apperrors"
	"videosummary/internal/chat"
	"videosummary/internal/db"
	"videosummary/internal/jobs"
	"videosummary/internal/notify"
	"videosummary/internal/resolver"
	"videosummary/internal/session"
	"videosummary/internal/share"
	"videosummary/internal/summary"
	"videosummary/internal/transcript"
	"videosummary/internal/upload"
	"videosummary/internal/worker"
	"videosummary/models"
)

// Translator translates a subtitle sequence into lang.
type Translator interface {
	Translate(ctx context.Context, subs []models.Subtitle, lang string) ([]models.Subtitle, error)
}

// Submitter queues background jobs.
type Submitter interface {
	Submit(job worker.Job) error
}

type Deps struct {
	Sessions    *session.Manager
	Store       db.SessionStore
	Resolvers   *resolver.Registry
	Revalidator *resolver.Revalidator
	Transcripts transcript.Fetcher
	Translator  Translator
	Summaries   *summary.Pipeline
	Chat        *chat.Orchestrator
	Shares      *share.Store
	Uploads     *upload.Client
	Notifier    *notify.Recorder
	Jobs        Submitter
	Sequencer   *jobs.Sequencer
	Logger      logrus.FieldLogger
}

type Service struct {
	Deps
	persistDeps jobs.Deps
}

func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	if d.Sequencer == nil {
		d.Sequencer = jobs.NewSequencer(jobs.DefaultSequencerSize)
	}
	return &Service{
		Deps: d,
		persistDeps: jobs.Deps{
			Store:     d.Store,
			Sequencer: d.Sequencer,
			Notifier:  d.Notifier,
			Logger:    d.Logger.WithField("component", "persistence"),
		},
	}
}

// persist queues rev for storage. It never blocks the caller and never fails
// the operation that produced rev. Nothing is saved for a retired container,
// since the session it held was deleted or replaced.
func (s *Service) persist(c *session.Container, rev session.Revision) {
	if c.Retired() {
		s.Logger.WithField("session_id", rev.Session.ID).Debug("session no longer active, save skipped")
		return
	}
	job := jobs.NewPersistSessionJob(s.persistDeps, rev.Session, rev.Version)
	if err := s.Jobs.Submit(job); err != nil {
		s.Logger.WithFields(logrus.Fields{"session_id": rev.Session.ID, "error": err}).Error("could not queue session save")
		s.Notifier.Record(rev.Session.ID, apperrors.PersistenceFailure, "failed to save session: "+err.Error())
	}
}

func (s *Service) container(ctx context.Context, id string) (*session.Container, error) {
	if id == "" {
		return nil, apperrors.Errorf(apperrors.InvalidInput, "service", "session id is required")
	}
	return s.Sessions.Get(ctx, id)
}

// Load returns the current state of session id, reading it from the store
// when it is not active.
func (s *Service) Load(ctx context.Context, id string) (*models.VideoSession, error) {
	c, err := s.container(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.Snapshot(), nil
}

// Reopen makes the stored copy of id the active session, replacing any
// container already active for id. A session that was never stored but is
// active is returned as is.
func (s *Service) Reopen(ctx context.Context, id string) (*models.VideoSession, error) {
	if id == "" {
		return nil, apperrors.Errorf(apperrors.InvalidInput, "service.Reopen", "session id is required")
	}
	stored, err := s.Store.Get(ctx, id)
	if apperrors.IsKind(err, apperrors.NotFound) {
		return s.Load(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	c, err := s.Sessions.Replace(stored)
	if err != nil {
		return nil, err
	}
	return c.Snapshot(), nil
}

// History lists stored sessions, most recently updated first.
func (s *Service) History(ctx context.Context) ([]*models.VideoSession, error) {
	return s.Store.List(ctx)
}

// Delete removes id from memory and from the store. Saves of id still queued
// are skipped.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.Errorf(apperrors.InvalidInput, "service.Delete", "session id is required")
	}
	s.Sessions.Drop(id)
	s.Notifier.Forget(id)
	return jobs.NewDeleteSessionJob(s.persistDeps, id, session.NextVersion()).Execute(ctx)
}

// Notifications returns the failure notices recorded for id.
func (s *Service) Notifications(id string) []notify.Notification {
	return s.Notifier.List(id)
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
