// Package chat answers questions about a video grounded in its title and
// detailed summary.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"videosummary/internal/aiclient"
	"videosummary/internal/apperrors"
	"videosummary/internal/session"
	"videosummary/models"
)

const DefaultWelcome = "Hi! I can answer questions about this video. What would you like to know?"

const systemPrompt = `You are an assistant. Answer the user's questions based on the content in %s. If you don't know how to answer, you can say "I don't know".`

// Conversation is the chat view of a session state container.
type Conversation interface {
	Snapshot() *models.VideoSession
	Begin(resource string) session.Ticket
	AppendMessage(m models.Message) (session.Revision, bool)
	RemoveMessage(id string) session.Revision
	Mutate(t session.Ticket, fn func(s *models.VideoSession)) (session.Revision, bool)
}

type Orchestrator struct {
	Gen     aiclient.Generator
	Welcome string
	Logger  logrus.FieldLogger
}

func NewOrchestrator(gen aiclient.Generator, welcome string, logger logrus.FieldLogger) *Orchestrator {
	if welcome == "" {
		welcome = DefaultWelcome
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Orchestrator{Gen: gen, Welcome: welcome, Logger: logger}
}

// Result of a Send. Revision is the state after the assistant reply was
// appended; it is the zero value when nothing changed.
type Result struct {
	Reply    *models.Message
	Revision session.Revision
}

// Send appends text as a user message, streams the reply through onDelta and
// appends it as an assistant message. On failure the user message is removed
// again. Blank text is ignored and yields a zero Result.
func (o *Orchestrator) Send(ctx context.Context, conv Conversation, text string, onDelta func(string) error) (Result, error) {
	const op = "chat.Send"
	if strings.TrimSpace(text) == "" {
		return Result{}, nil
	}

	// Each send supersedes the one before it, like a reset does.
	ticket := conv.Begin(session.ResourceChat)
	before := conv.Snapshot()
	user := models.NewMessage(models.SenderUser, text)
	if _, ok := conv.AppendMessage(user); !ok {
		return Result{}, apperrors.Errorf(apperrors.NotFound, op, "session %s is no longer active", before.ID)
	}

	history := withoutPending(before.ChatMessages, "")
	if len(history) == 0 {
		history = []models.Message{o.WelcomeMessage()}
	}
	msgs := make([]aiclient.Message, 0, len(history)+2)
	msgs = append(msgs, aiclient.Message{Role: aiclient.RoleSystem, Content: fmt.Sprintf(systemPrompt, Grounding(before.Title, before.Detail))})
	for _, m := range append(history, user) {
		msgs = append(msgs, aiclient.Message{Role: role(m.Sender), Content: m.Content})
	}

	log := o.Logger.WithField("session_id", before.ID)
	answer, err := o.Gen.Stream(ctx, msgs, onDelta)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = fmt.Errorf("empty reply")
	}
	if err != nil {
		conv.RemoveMessage(user.ID)
		log.WithError(err).Error("chat reply failed")
		return Result{}, apperrors.E(apperrors.GenerationFailure, op, err)
	}

	reply := models.NewMessage(models.SenderAssistant, answer)
	rev, ok := conv.Mutate(ticket, func(s *models.VideoSession) {
		s.ChatMessages = append(withoutPending(s.ChatMessages, user.ID), reply)
	})
	if !ok {
		conv.RemoveMessage(user.ID)
		log.Info("chat was superseded while replying, reply discarded")
		return Result{}, nil
	}
	return Result{Reply: &reply, Revision: rev}, nil
}

// Reset replaces the history with a single welcome message and discards any
// reply still streaming. Whether the result is persisted is up to the caller.
func (o *Orchestrator) Reset(conv Conversation) session.Revision {
	t := conv.Begin(session.ResourceChat)
	welcome := o.WelcomeMessage()
	rev, _ := conv.Mutate(t, func(s *models.VideoSession) {
		s.ChatMessages = []models.Message{welcome}
	})
	return rev
}

// WelcomeMessage is the greeting a fresh conversation starts with.
func (o *Orchestrator) WelcomeMessage() models.Message {
	return models.NewMessage(models.SenderAssistant, o.Welcome)
}

// Grounding is the video context block embedded in the system prompt.
func Grounding(title, detail string) string {
	return fmt.Sprintf("\n<VideoInfo>\n<Title>%s</Title>\n<DetailedSummary>%s</DetailedSummary>\n</VideoInfo>", title, detail)
}

// withoutPending drops user messages that have no assistant reply after
// them, except the one with id keep. Those belong to superseded sends.
func withoutPending(msgs []models.Message, keep string) []models.Message {
	out := make([]models.Message, 0, len(msgs))
	for i, m := range msgs {
		if m.Sender == models.SenderUser && m.ID != keep &&
			(i == len(msgs)-1 || msgs[i+1].Sender != models.SenderAssistant) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func role(s models.Sender) aiclient.Role {
	if s == models.SenderUser {
		return aiclient.RoleUser
	}
	return aiclient.RoleAssistant
}
