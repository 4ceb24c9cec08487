package handlers

import (
	"github.com/gofiber/fiber/v2"

	"videosummary/internal/apperrors"
	"videosummary/models"
	"videosummary/utils"
)

// CreateShare godoc
// @Summary Store a read-only snapshot
// @Tags share
// @Accept  json
// @Produce  json
// @Param   snapshot body models.ShareSnapshot true "Session snapshot"
// @Success 200 {object} map[string]string "Share id"
// @Failure 400 {object} ErrorResponse
// @Router /share [post]
func (h *ApplicationHandler) CreateShare(c *fiber.Ctx) error {
	snap := new(models.ShareSnapshot)
	if ok, err := h.bind(c, snap); !ok {
		return err
	}
	id, err := h.Shares.Save(*snap)
	if err != nil {
		h.Logger.WithField("error", err).Error("failed to write share")
		return utils.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"id": id})
}

// GetShare returns the snapshot stored under ?id as written.
func (h *ApplicationHandler) GetShare(c *fiber.Ctx) error {
	id := c.Query("id")
	if id == "" {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "id is required")
	}
	snap, err := h.Shares.Load(id)
	if err != nil {
		return utils.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(snap)
}

// ShareSession snapshots an active session and returns the share id.
func (h *ApplicationHandler) ShareSession(c *fiber.Ctx) error {
	id, err := h.Service.Share(c.UserContext(), sessionID(c))
	if err != nil {
		if !apperrors.IsKind(err, apperrors.NotFound) {
			h.Logger.WithField("error", err).Error("failed to share session")
		}
		return utils.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"id": id})
}
