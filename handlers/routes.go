package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// Register mounts every API route on app.
func (h *ApplicationHandler) Register(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "videosummary is healthy",
		})
	})

	api := app.Group("/api")
	api.Post("/share", h.CreateShare)
	api.Get("/share", h.GetShare)
	api.Get("/video-proxy", h.VideoProxy)

	v1 := api.Group("/v1")
	v1.Post("/uploads", h.UploadFile)

	sessions := v1.Group("/sessions")
	sessions.Post("", h.SubmitSession)
	sessions.Get("", h.ListSessions)
	sessions.Get("/:id", h.GetSession)
	sessions.Delete("/:id", h.DeleteSession)
	sessions.Patch("/:id/language", h.SetLanguage)
	sessions.Post("/:id/media/ensure", h.EnsureMedia)
	sessions.Post("/:id/translations", h.TranslateSession)
	sessions.Get("/:id/subtitles", h.GetSubtitles)
	sessions.Post("/:id/summaries/brief", h.BriefSummary)
	sessions.Post("/:id/summaries/detail", h.DetailSummary)
	sessions.Post("/:id/chat", h.SendChat)
	sessions.Post("/:id/chat/reset", h.ResetChat)
	sessions.Delete("/:id/chat", h.ClearChat)
	sessions.Get("/:id/notifications", h.ListNotifications)
	sessions.Post("/:id/share", h.ShareSession)
}
