package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"videosummary/internal/apperrors"
	"videosummary/internal/subtitles"
	"videosummary/utils"
)

// SubmitRequest defines the expected request body for submitting a video.
type SubmitRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// LanguageRequest selects a display or translation language.
type LanguageRequest struct {
	Language string `json:"language" validate:"required"`
}

// MediaResponse reports the outcome of a liveness check.
type MediaResponse struct {
	MediaURL  string `json:"mediaUrl"`
	Refreshed bool   `json:"refreshed"`
	Skipped   bool   `json:"skipped"`
	Attempts  int    `json:"attempts"`
	Warning   string `json:"warning,omitempty"`
}

// bind parses the JSON body into dst and validates it. When it reports
// false the error response has already been written.
func (h *ApplicationHandler) bind(c *fiber.Ctx, dst any) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse request JSON: %v", err))
	}
	if err := h.Validate.Struct(dst); err != nil {
		return false, utils.RespondWithValidationErrors(c, err)
	}
	return true, nil
}

// sessionID copies the :id param; fiber reuses the underlying buffer.
func sessionID(c *fiber.Ctx) string {
	return strings.Clone(c.Params("id"))
}

// SubmitSession godoc
// @Summary Submit a video URL
// @Description Classifies the URL, resolves its media, fetches the transcript and creates the active session.
// @Tags sessions
// @Accept  json
// @Produce  json
// @Param   request body SubmitRequest true "Video to summarize"
// @Success 201 {object} models.VideoSession
// @Failure 400 {object} ErrorResponse "Invalid URL"
// @Failure 502 {object} ErrorResponse "Resolution or transcript failure"
// @Router /sessions [post]
func (h *ApplicationHandler) SubmitSession(c *fiber.Ctx) error {
	req := new(SubmitRequest)
	if ok, err := h.bind(c, req); !ok {
		return err
	}
	s, err := h.Service.Submit(c.UserContext(), utils.SanitizeInput(req.URL))
	if err != nil {
		h.Logger.WithField("error", err).Warn("submission failed")
		return utils.RespondWithAppError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusCreated, s)
}

// ListSessions godoc
// @Summary List stored sessions
// @Tags sessions
// @Produce  json
// @Success 200 {array} models.VideoSession
// @Router /sessions [get]
func (h *ApplicationHandler) ListSessions(c *fiber.Ctx) error {
	list, err := h.Service.History(c.UserContext())
	if err != nil {
		return utils.RespondWithAppError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, list)
}

// GetSession godoc
// @Summary Open a session, making the stored copy the active one
// @Tags sessions
// @Produce  json
// @Param   id path string true "Session ID"
// @Success 200 {object} models.VideoSession
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *ApplicationHandler) GetSession(c *fiber.Ctx) error {
	s, err := h.Service.Reopen(c.UserContext(), sessionID(c))
	if err != nil {
		return utils.RespondWithAppError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, s)
}

func (h *ApplicationHandler) DeleteSession(c *fiber.Ctx) error {
	if err := h.Service.Delete(c.UserContext(), sessionID(c)); err != nil {
		return utils.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ApplicationHandler) SetLanguage(c *fiber.Ctx) error {
	req := new(LanguageRequest)
	if ok, err := h.bind(c, req); !ok {
		return err
	}
	s, err := h.Service.SetLanguage(c.UserContext(), sessionID(c), req.Language)
	if err != nil {
		return utils.RespondWithAppError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, s)
}

// TranslateSession godoc
// @Summary Translate the subtitles
// @Description Translates the original subtitles into the requested language and selects it.
// @Tags sessions
// @Accept  json
// @Produce  json
// @Param   id path string true "Session ID"
// @Param   request body LanguageRequest true "Target language code"
// @Success 200 {object} models.VideoSession
// @Failure 502 {object} ErrorResponse "Translation failure"
// @Router /sessions/{id}/translations [post]
func (h *ApplicationHandler) TranslateSession(c *fiber.Ctx) error {
	req := new(LanguageRequest)
	if ok, err := h.bind(c, req); !ok {
		return err
	}
	s, err := h.Service.Translate(c.UserContext(), sessionID(c), req.Language)
	if err != nil {
		return utils.RespondWithAppError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, s)
}

// GetSubtitles returns the subtitles in ?lang, filtered by ?q. With ?format
// (vtt, srt or txt) the subtitles are rendered as a file instead of JSON.
func (h *ApplicationHandler) GetSubtitles(c *fiber.Ctx) error {
	subs, err := h.Service.Subtitles(c.UserContext(), sessionID(c), c.Query("lang"), c.Query("q"))
	if err != nil {
		return utils.RespondWithAppError(c, err)
	}
	if c.Query("format") == "" {
		return utils.RespondWithJSON(c, fiber.StatusOK, subs)
	}

	format, err := subtitles.ParseFormat(c.Query("format"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, err.Error())
	}
	body, err := subtitles.Render(subs, format)
	if err != nil {
		return utils.RespondWithAppError(c, err)
	}
	c.Set(fiber.HeaderContentType, format.ContentType())
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="subtitles.%s"`, format))
	return c.Status(fiber.StatusOK).SendString(body)
}

// EnsureMedia godoc
// @Summary Revalidate the media URL
// @Description Checks the media URL and re-resolves it when expired. When every attempt fails the stale URL is returned with a warning.
// @Tags sessions
// @Produce  json
// @Param   id path string true "Session ID"
// @Param   readonly query bool false "Share view; never revalidated"
// @Success 200 {object} MediaResponse
// @Router /sessions/{id}/media/ensure [post]
func (h *ApplicationHandler) EnsureMedia(c *fiber.Ctx) error {
	out, err := h.Service.EnsureMedia(c.UserContext(), sessionID(c), c.QueryBool("readonly"))
	resp := MediaResponse{MediaURL: out.MediaURL, Refreshed: out.Refreshed, Skipped: out.Skipped, Attempts: out.Attempts}
	if err != nil {
		if !apperrors.IsKind(err, apperrors.LivenessFailure) {
			return utils.RespondWithAppError(c, err)
		}
		resp.Warning = err.Error()
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, resp)
}

func (h *ApplicationHandler) ListNotifications(c *fiber.Ctx) error {
	return utils.RespondWithJSON(c, fiber.StatusOK, h.Service.Notifications(sessionID(c)))
}

func (h *ApplicationHandler) ResetChat(c *fiber.Ctx) error {
	s, err := h.Service.ResetChat(c.UserContext(), sessionID(c))
	if err != nil {
		return utils.RespondWithAppError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, s)
}

func (h *ApplicationHandler) ClearChat(c *fiber.Ctx) error {
	s, err := h.Service.ClearChat(c.UserContext(), sessionID(c))
	if err != nil {
		return utils.RespondWithAppError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, s)
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
