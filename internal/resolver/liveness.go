package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"videosummary/internal/apperrors"
	"videosummary/internal/classifier"
	"videosummary/models"
)

// ErrRetriesExhausted is wrapped in the LivenessFailure returned once every
// re-resolution attempt has been used.
var ErrRetriesExhausted = errors.New("media url could not be refreshed")

// Target describes the media URL of one session to revalidate.
type Target struct {
	Platform   models.Platform
	Identifier string
	MediaURL   string
	// ReadOnly marks share views, which never revalidate.
	ReadOnly bool
}

// Outcome reports what Ensure did.
type Outcome struct {
	MediaURL  string
	Refreshed bool
	Skipped   bool
	Attempts  int
}

// Revalidator keeps a session's media URL playable by probing it and
// re-resolving through the platform resolver when it has expired.
type Revalidator struct {
	Registry *Registry
	Retries  int
	Delay    time.Duration
	Logger   logrus.FieldLogger

	sleep func(ctx context.Context, d time.Duration) error
}

func NewRevalidator(registry *Registry, retries int, delay time.Duration, logger logrus.FieldLogger) *Revalidator {
	if retries <= 0 {
		retries = 3
	}
	return &Revalidator{Registry: registry, Retries: retries, Delay: delay, Logger: logger, sleep: sleepCtx}
}

// NeedsCheck reports whether t is subject to liveness checks at all.
func NeedsCheck(t Target) bool {
	if t.ReadOnly || t.Platform == models.PlatformGeneric {
		return false
	}
	return !classifier.IsYouTubePage(t.MediaURL)
}

// Ensure returns a usable media URL for t. On exhaustion it returns the stale
// URL in the outcome together with a LivenessFailure.
func (r *Revalidator) Ensure(ctx context.Context, t Target) (Outcome, error) {
	const op = "resolver.Ensure"
	out := Outcome{MediaURL: t.MediaURL}
	if !NeedsCheck(t) {
		out.Skipped = true
		return out, nil
	}

	res, ok := r.Registry.For(t.Platform)
	if !ok {
		return out, apperrors.Errorf(apperrors.Internal, op, "no resolver registered for %s", t.Platform)
	}
	if res.IsUsable(ctx, t.MediaURL) {
		return out, nil
	}

	log := r.logger().WithFields(logrus.Fields{"platform": t.Platform, "identifier": t.Identifier})
	var lastErr error
	for attempt := 1; attempt <= r.Retries; attempt++ {
		if attempt > 1 {
			if err := r.wait(ctx); err != nil {
				return out, apperrors.E(apperrors.LivenessFailure, op, err)
			}
		}
		out.Attempts = attempt

		resolved, err := res.Resolve(ctx, t.Identifier)
		if err != nil {
			lastErr = err
			log.WithFields(logrus.Fields{"attempt": attempt, "error": err}).Warn("re-resolution failed")
			if IsPermanent(err) {
				break
			}
			continue
		}
		if !res.IsUsable(ctx, resolved.MediaURL) {
			lastErr = fmt.Errorf("re-resolved url is not usable")
			log.WithField("attempt", attempt).Warn("re-resolved url failed check")
			continue
		}

		log.WithField("attempt", attempt).Info("media url refreshed")
		out.MediaURL = resolved.MediaURL
		out.Refreshed = true
		return out, nil
	}

	if lastErr != nil {
		return out, apperrors.E(apperrors.LivenessFailure, op, fmt.Errorf("%w: %v", ErrRetriesExhausted, lastErr))
	}
	return out, apperrors.E(apperrors.LivenessFailure, op, ErrRetriesExhausted)
}

func (r *Revalidator) wait(ctx context.Context) error {
	if r.Delay <= 0 {
		return ctx.Err()
	}
	sleep := r.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	return sleep(ctx, r.Delay)
}

func (r *Revalidator) logger() logrus.FieldLogger {
	if r.Logger == nil {
		return logrus.StandardLogger()
	}
	return r.Logger
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
