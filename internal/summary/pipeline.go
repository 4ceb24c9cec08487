// Package summary produces the brief and the detailed multi-stage summaries
// of a transcript.
package summary

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"videosummary/internal/aiclient"
	"videosummary/internal/apperrors"
	"videosummary/models"
)

var (
	// ErrEmptyOutput is returned when the generated text is empty once code
	// fences are stripped.
	ErrEmptyOutput = errors.New("generation produced no content")

	fenceOpen  = regexp.MustCompile("(?m)^```.*\n")
	fenceClose = regexp.MustCompile("(?m)^```\\s*$")
)

// StripCodeFences removes markdown code fence lines the model wraps its output in.
func StripCodeFences(s string) string {
	return fenceClose.ReplaceAllString(fenceOpen.ReplaceAllString(s, ""), "")
}

type BriefInput struct {
	Title     string
	Subtitles []models.Subtitle
	Language  string
}

type DetailedInput struct {
	Subtitles []models.Subtitle
	Language  string
}

type Pipeline struct {
	Gen    aiclient.Generator
	Logger logrus.FieldLogger
}

func NewPipeline(gen aiclient.Generator, logger logrus.FieldLogger) *Pipeline {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pipeline{Gen: gen, Logger: logger}
}

// Brief streams a short summary in one generation call. The channel is
// closed after a Done or Error event, or when ctx is cancelled.
func (p *Pipeline) Brief(ctx context.Context, in BriefInput) <-chan Event {
	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		emit := emitter(ctx, ch)
		lang := LanguageName(in.Language)
		msgs := []aiclient.Message{
			{Role: aiclient.RoleSystem, Content: fillPrompt(briefSystemPrompt, map[string]string{"targetLanguage": lang})},
			{Role: aiclient.RoleUser, Content: fillPrompt(briefUserPrompt, map[string]string{"title": in.Title, "subtitle": JoinSubtitles(in.Subtitles)})},
		}

		raw, err := p.Gen.Stream(ctx, msgs, func(chunk string) error {
			if !emit(content(chunk)) {
				return ctx.Err()
			}
			return nil
		})
		if err != nil {
			p.Logger.WithFields(logrus.Fields{"kind": "brief", "error": err}).Error("summary generation failed")
			emit(failed(apperrors.E(apperrors.GenerationFailure, "summary.Brief", err)))
			return
		}
		text, err := finish(raw)
		if err != nil {
			emit(failed(apperrors.E(apperrors.GenerationFailure, "summary.Brief", err)))
			return
		}
		emit(done(text))
	}()
	return ch
}

// Detailed runs the three-stage pipeline: narrative, outline, then a streamed
// expansion of the outline. Progress events report 0, 33, 66 and 100.
func (p *Pipeline) Detailed(ctx context.Context, in DetailedInput) <-chan Event {
	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		emit := emitter(ctx, ch)
		m := &machine{}
		fail := func(stage Stage, err error) {
			p.Logger.WithFields(logrus.Fields{"kind": "detail", "stage": stage, "state": m.state.String(), "error": err}).Error("summary generation failed")
			if m.advance(StateFailed) != nil {
				return
			}
			emit(failed(apperrors.E(apperrors.GenerationFailure, "summary.Detailed", err)))
		}
		// enter moves to the state of stage and reports its progress. A run
		// that cannot make the transition ends as failed.
		enter := func(to State, stage Stage, pct int) bool {
			if err := m.advance(to); err != nil {
				fail(stage, err)
				return false
			}
			return emit(progress(stage, pct))
		}

		lang := LanguageName(in.Language)
		subtitle := JoinSubtitles(in.Subtitles)

		if !enter(StateNarrative, StageNarrative, 0) {
			return
		}
		narrative, err := p.Gen.Complete(ctx, []aiclient.Message{{Role: aiclient.RoleUser, Content: fillPrompt(narrativePrompt, map[string]string{
			"subtitle": subtitle, "targetLanguage": lang,
		})}})
		if err != nil {
			fail(StageNarrative, err)
			return
		}

		if !enter(StateOutline, StageOutline, 33) {
			return
		}
		outline, err := p.Gen.Complete(ctx, []aiclient.Message{{Role: aiclient.RoleUser, Content: fillPrompt(outlinePrompt, map[string]string{
			"subtitle": narrative, "targetLanguage": lang,
		})}})
		if err != nil {
			fail(StageOutline, err)
			return
		}

		if !enter(StateExpand, StageExpand, 66) {
			return
		}
		raw, err := p.Gen.Stream(ctx, []aiclient.Message{{Role: aiclient.RoleUser, Content: fillPrompt(expandPrompt, map[string]string{
			"subtitle": subtitle, "outline": outline, "targetLanguage": lang,
		})}}, func(chunk string) error {
			if !emit(content(chunk)) {
				return ctx.Err()
			}
			return nil
		})
		if err != nil {
			fail(StageExpand, err)
			return
		}

		text, err := finish(raw)
		if err != nil {
			fail(StageExpand, err)
			return
		}
		if enter(StateSucceeded, StageDone, 100) {
			emit(done(text))
		}
	}()
	return ch
}

func finish(raw string) (string, error) {
	text := StripCodeFences(raw)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyOutput
	}
	return text, nil
}

// emitter returns a send that gives up once ctx is done.
func emitter(ctx context.Context, ch chan<- Event) func(Event) bool {
	return func(e Event) bool {
		select {
		case ch <- e:
			return true
		case <-ctx.Done():
			return false
		}
	}
}
