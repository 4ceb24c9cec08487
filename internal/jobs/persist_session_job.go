// Package jobs holds the background jobs run on the worker dispatcher.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"videosummary/internal/apperrors"
	"videosummary/internal/db"
	"videosummary/models"
)

const defaultTimeout = 15 * time.Second

// Notifier receives user-facing failure notices.
type Notifier interface {
	Record(sessionID string, kind apperrors.Kind, message string)
}

// Deps are shared by every persistence job.
type Deps struct {
	Store     db.SessionStore
	Sequencer *Sequencer
	Notifier  Notifier
	Logger    logrus.FieldLogger
	Timeout   time.Duration
}

func (d Deps) logger() logrus.FieldLogger {
	if d.Logger == nil {
		return logrus.StandardLogger()
	}
	return d.Logger
}

func (d Deps) timeout() time.Duration {
	if d.Timeout <= 0 {
		return defaultTimeout
	}
	return d.Timeout
}

// PersistSessionJob writes one session snapshot.
type PersistSessionJob struct {
	Deps
	Session *models.VideoSession
	Version uint64
}

func NewPersistSessionJob(deps Deps, s *models.VideoSession, version uint64) *PersistSessionJob {
	return &PersistSessionJob{Deps: deps, Session: s, Version: version}
}

func (j *PersistSessionJob) ID() string {
	return fmt.Sprintf("persist:%s@%d", j.Session.ID, j.Version)
}

// Execute upserts the snapshot unless a newer one was already written.
// Failures are reported to the Notifier and never touch in-memory state.
func (j *PersistSessionJob) Execute(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout())
	defer cancel()

	applied, err := j.Sequencer.Apply(j.Session.ID, j.Version, func() error {
		return j.Store.Upsert(ctx, j.Session)
	})
	log := j.logger().WithFields(logrus.Fields{"session_id": j.Session.ID, "version": j.Version})
	if err != nil {
		if j.Notifier != nil {
			j.Notifier.Record(j.Session.ID, apperrors.PersistenceFailure, "failed to save session: "+err.Error())
		}
		return err
	}
	if !applied {
		log.Debug("skipped stale snapshot")
		return nil
	}
	log.Debug("session saved")
	return nil
}

// DeleteSessionJob removes a session from the store.
type DeleteSessionJob struct {
	Deps
	SessionID string
	Version   uint64
}

func NewDeleteSessionJob(deps Deps, id string, version uint64) *DeleteSessionJob {
	return &DeleteSessionJob{Deps: deps, SessionID: id, Version: version}
}

func (j *DeleteSessionJob) ID() string {
	return fmt.Sprintf("delete:%s@%d", j.SessionID, j.Version)
}

func (j *DeleteSessionJob) Execute(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout())
	defer cancel()

	_, err := j.Sequencer.Apply(j.SessionID, j.Version, func() error {
		return j.Store.Delete(ctx, j.SessionID)
	})
	if err != nil && j.Notifier != nil {
		j.Notifier.Record(j.SessionID, apperrors.PersistenceFailure, "failed to delete session: "+err.Error())
	}
	return err
}
