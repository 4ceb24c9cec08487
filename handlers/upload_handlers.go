package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"videosummary/internal/upload"
	"videosummary/utils"
)

// UploadFile godoc
// @Summary Upload audio and summarize it
// @Description Forwards the multipart "file" to the upload service and submits the hosted URL.
// @Tags uploads
// @Accept  multipart/form-data
// @Produce  json
// @Param   file formData file true "Audio file"
// @Param   prefix formData string false "Storage prefix"
// @Param   need_compress formData bool false "Ask the upload service to compress"
// @Success 201 {object} models.VideoSession
// @Failure 413 {object} ErrorResponse "File too large"
// @Router /uploads [post]
func (h *ApplicationHandler) UploadFile(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		h.Logger.Errorf("Error getting file from request: %v", err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Error getting file: %v", err))
	}

	fileHandle, err := file.Open()
	if err != nil {
		h.Logger.Errorf("Error opening file: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Error opening file: %v", err))
	}
	defer fileHandle.Close()

	opts := upload.Options{
		Prefix:       c.FormValue("prefix"),
		NeedCompress: c.FormValue("need_compress") == "true",
	}
	s, err := h.Service.Upload(c.UserContext(), upload.File{
		Name:        file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Size:        file.Size,
		Body:        fileHandle,
	}, opts)
	if err != nil {
		h.Logger.WithField("error", err).Warn("upload failed")
		return utils.RespondWithAppError(c, err)
	}

	h.Logger.Infof("Uploaded %s and created session %s", file.Filename, s.ID)
	return utils.RespondWithJSON(c, fiber.StatusCreated, s)
}
