package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"videosummary/internal/summary"
	"videosummary/models"
	"videosummary/utils"
)

// ChatRequest carries one user message.
type ChatRequest struct {
	Content string `json:"content" validate:"required"`
}

// streamFrame is the JSON data of one SSE frame.
type streamFrame struct {
	Stage   string          `json:"stage,omitempty"`
	Percent *int            `json:"percent,omitempty"`
	Chunk   string          `json:"chunk,omitempty"`
	Text    string          `json:"text,omitempty"`
	Message *models.Message `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func writeFrame(w *bufio.Writer, event string, f streamFrame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return w.Flush()
}

func frameFor(ev summary.Event) streamFrame {
	switch ev.Kind {
	case summary.EventProgress:
		p := ev.Percent
		return streamFrame{Stage: string(ev.Stage), Percent: &p}
	case summary.EventContent:
		return streamFrame{Chunk: ev.Chunk}
	case summary.EventDone:
		return streamFrame{Text: ev.Text}
	default:
		msg := "generation failed"
		if ev.Err != nil {
			msg = ev.Err.Error()
		}
		return streamFrame{Error: msg}
	}
}

// stream switches the response to SSE and runs fn once the headers are
// sent. fn keeps running after the client disconnects so its result is
// still stored.
func (h *ApplicationHandler) stream(c *fiber.Ctx, fn func(ctx context.Context, w *bufio.Writer)) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	timeout := h.StreamTimeout
	if timeout <= 0 {
		timeout = defaultStreamTimeout
	}
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		fn(ctx, w)
	})
	return nil
}

type generateFunc func(ctx context.Context, id string, onEvent func(summary.Event) error) (string, error)

func (h *ApplicationHandler) summarize(c *fiber.Ctx, kind string, generate generateFunc) error {
	id := sessionID(c)
	if _, err := h.Service.Load(c.UserContext(), id); err != nil {
		return utils.RespondWithAppError(c, err)
	}
	log := h.Logger.WithFields(logrus.Fields{"session_id": id, "kind": kind})

	return h.stream(c, func(ctx context.Context, w *bufio.Writer) {
		terminal := false
		_, err := generate(ctx, id, func(ev summary.Event) error {
			if ev.Kind == summary.EventDone || ev.Kind == summary.EventError {
				terminal = true
			}
			return writeFrame(w, string(ev.Kind), frameFor(ev))
		})
		if err != nil {
			log.WithField("error", err).Warn("summary stream ended with error")
			if !terminal {
				_ = writeFrame(w, string(summary.EventError), streamFrame{Error: err.Error()})
			}
		}
	})
}

// BriefSummary godoc
// @Summary Stream a brief summary
// @Description Server-Sent Events: content frames with chunks, then done with the final text, or error.
// @Tags summaries
// @Produce  text/event-stream
// @Param   id path string true "Session ID"
// @Router /sessions/{id}/summaries/brief [post]
func (h *ApplicationHandler) BriefSummary(c *fiber.Ctx) error {
	return h.summarize(c, "brief", h.Service.GenerateBrief)
}

// DetailSummary godoc
// @Summary Stream a detailed summary
// @Description Server-Sent Events: progress frames at 0, 33, 66 and 100, content frames for the final stage, then done or error.
// @Tags summaries
// @Produce  text/event-stream
// @Param   id path string true "Session ID"
// @Router /sessions/{id}/summaries/detail [post]
func (h *ApplicationHandler) DetailSummary(c *fiber.Ctx) error {
	return h.summarize(c, "detail", h.Service.GenerateDetail)
}

// SendChat streams the assistant reply to one user message. The done frame
// carries the stored reply; it is absent when the chat was reset meanwhile.
func (h *ApplicationHandler) SendChat(c *fiber.Ctx) error {
	req := new(ChatRequest)
	if ok, err := h.bind(c, req); !ok {
		return err
	}
	id := sessionID(c)
	if _, err := h.Service.Load(c.UserContext(), id); err != nil {
		return utils.RespondWithAppError(c, err)
	}
	text := req.Content

	return h.stream(c, func(ctx context.Context, w *bufio.Writer) {
		deliver := true
		res, err := h.Service.SendChat(ctx, id, text, func(delta string) error {
			if !deliver {
				return nil
			}
			if err := writeFrame(w, string(summary.EventContent), streamFrame{Chunk: delta}); err != nil {
				deliver = false
			}
			return nil
		})
		if err != nil {
			h.Logger.WithFields(logrus.Fields{"session_id": id, "error": err}).Warn("chat reply failed")
			_ = writeFrame(w, string(summary.EventError), streamFrame{Error: err.Error()})
			return
		}
		_ = writeFrame(w, string(summary.EventDone), streamFrame{Message: res.Reply})
	})
}
