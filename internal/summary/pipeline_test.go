package summary

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videosummary/internal/aiclient"
	"videosummary/internal/apperrors"
	"videosummary/models"
)

// scriptedGen answers Complete calls in order and streams the given chunks.
type scriptedGen struct {
	mu          sync.Mutex
	completions []string
	completeErr map[int]error
	chunks      []string
	streamErr   error
	prompts     []string
}

func (g *scriptedGen) Complete(_ context.Context, msgs []aiclient.Message) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := len(g.prompts)
	g.prompts = append(g.prompts, msgs[len(msgs)-1].Content)
	if err := g.completeErr[i]; err != nil {
		return "", err
	}
	return g.completions[i], nil
}

func (g *scriptedGen) Stream(_ context.Context, msgs []aiclient.Message, onDelta func(string) error) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, msgs[len(msgs)-1].Content)
	g.mu.Unlock()
	var sb strings.Builder
	for _, c := range g.chunks {
		sb.WriteString(c)
		if err := onDelta(c); err != nil {
			return sb.String(), err
		}
	}
	return sb.String(), g.streamErr
}

func collect(ch <-chan Event) []Event {
	var out []Event
	for e := range ch {
		out = append(out, e)
	}
	return out
}

var subs = []models.Subtitle{{Text: "first line"}, {Text: "second line"}}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, "# Title\n- a\n", StripCodeFences("```markdown\n# Title\n- a\n```"))
	assert.Equal(t, "plain", StripCodeFences("plain"))
	assert.Equal(t, "", strings.TrimSpace(StripCodeFences("```\n```")))
}

func TestBrief_StreamsAndFinishes(t *testing.T) {
	gen := &scriptedGen{chunks: []string{"```md\n", "- point", "\n```"}}
	events := collect(NewPipeline(gen, nil).Brief(context.Background(), BriefInput{Title: "T", Subtitles: subs, Language: "de"}))

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	require.Equal(t, EventDone, last.Kind)
	assert.Equal(t, "- point\n", last.Text)
	assert.Len(t, events, 4)
	assert.Equal(t, "Video title: T\nVideo subtitle:\nfirst line\nsecond line", gen.prompts[0])
}

func TestBrief_EmptyOutputIsFailure(t *testing.T) {
	gen := &scriptedGen{chunks: []string{"```\n", "```"}}
	events := collect(NewPipeline(gen, nil).Brief(context.Background(), BriefInput{Subtitles: subs}))

	last := events[len(events)-1]
	require.Equal(t, EventError, last.Kind)
	assert.True(t, apperrors.IsKind(last.Err, apperrors.GenerationFailure))
	assert.ErrorIs(t, last.Err, ErrEmptyOutput)
	for _, e := range events {
		assert.NotEqual(t, EventDone, e.Kind)
	}
}

func TestDetailed_ProgressSequence(t *testing.T) {
	gen := &scriptedGen{completions: []string{"narrative text", "1. outline"}, chunks: []string{"## Detail", " body"}}
	events := collect(NewPipeline(gen, nil).Detailed(context.Background(), DetailedInput{Subtitles: subs, Language: "fr"}))

	var percents []int
	var kinds []EventKind
	for _, e := range events {
		kinds = append(kinds, e.Kind)
		if e.Kind == EventProgress {
			percents = append(percents, e.Percent)
		}
	}
	assert.Equal(t, []int{0, 33, 66, 100}, percents)
	assert.Equal(t, []EventKind{EventProgress, EventProgress, EventProgress, EventContent, EventContent, EventProgress, EventDone}, kinds)
	assert.Equal(t, "## Detail body", events[len(events)-1].Text)

	require.Len(t, gen.prompts, 3)
	assert.Contains(t, gen.prompts[0], "first line\nsecond line")
	assert.Contains(t, gen.prompts[0], "in French")
	assert.Contains(t, gen.prompts[1], "narrative text", "outline is built from the narrative")
	assert.Contains(t, gen.prompts[2], "Content: first line\nsecond line")
	assert.Contains(t, gen.prompts[2], "Outline: 1. outline")
}

func TestDetailed_StageFailureStopsPipeline(t *testing.T) {
	gen := &scriptedGen{completions: []string{"n", ""}, completeErr: map[int]error{1: errors.New("rate limited")}}
	events := collect(NewPipeline(gen, nil).Detailed(context.Background(), DetailedInput{Subtitles: subs}))

	last := events[len(events)-1]
	require.Equal(t, EventError, last.Kind)
	assert.True(t, apperrors.IsKind(last.Err, apperrors.GenerationFailure))
	assert.Len(t, gen.prompts, 2, "P3 never runs")
	for _, e := range events {
		assert.NotEqual(t, EventDone, e.Kind)
	}
}

func TestDetailed_StreamFailure(t *testing.T) {
	gen := &scriptedGen{completions: []string{"n", "o"}, chunks: []string{"partial"}, streamErr: errors.New("reset")}
	events := collect(NewPipeline(gen, nil).Detailed(context.Background(), DetailedInput{Subtitles: subs}))
	assert.Equal(t, EventError, events[len(events)-1].Kind)
}

func TestDetailed_FailureEndsTheRunOnce(t *testing.T) {
	gen := &scriptedGen{completions: []string{"n", "o"}, streamErr: errors.New("reset")}
	events := collect(NewPipeline(gen, nil).Detailed(context.Background(), DetailedInput{Subtitles: subs}))

	var percents []int
	terminal := 0
	for _, e := range events {
		switch e.Kind {
		case EventProgress:
			percents = append(percents, e.Percent)
		case EventError, EventDone:
			terminal++
		}
	}
	assert.Equal(t, []int{0, 33, 66}, percents, "no progress after the failure")
	assert.Equal(t, 1, terminal)
}

func TestMachine(t *testing.T) {
	m := &machine{}
	require.NoError(t, m.advance(StateNarrative))
	assert.Error(t, m.advance(StateExpand), "cannot skip the outline")
	require.NoError(t, m.advance(StateOutline))
	require.NoError(t, m.advance(StateFailed))
	assert.Error(t, m.advance(StateExpand))
	assert.Equal(t, "failed", m.state.String())
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "German", LanguageName("de"))
	assert.Equal(t, "Japanese", LanguageName("ja"))
	assert.Equal(t, "English", LanguageName(""))
	assert.Equal(t, "Klingon!", LanguageName("Klingon!"))
}
