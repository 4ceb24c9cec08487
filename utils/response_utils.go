package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"videosummary/internal/apperrors"
	"videosummary/internal/upload"
)

// RespondWithError sends a JSON error response.
func RespondWithError(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

// RespondWithJSON sends a JSON success response.
func RespondWithJSON(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

// RespondWithAppError maps err onto a status code and writes it.
func RespondWithAppError(c *fiber.Ctx, err error) error {
	return RespondWithError(c, StatusFor(err), err.Error())
}

// StatusFor maps an error kind onto an HTTP status.
func StatusFor(err error) int {
	if errors.Is(err, upload.ErrTooLarge) {
		return fiber.StatusRequestEntityTooLarge
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch apperrors.KindOf(err) {
	case apperrors.InvalidInput:
		return fiber.StatusBadRequest
	case apperrors.NotFound:
		return fiber.StatusNotFound
	case apperrors.ResolutionFailure, apperrors.TranscriptFailure, apperrors.TranslationFailure,
		apperrors.GenerationFailure, apperrors.UploadFailure, apperrors.LivenessFailure:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler is the fiber app error handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return RespondWithAppError(c, err)
}

// FormatValidationErrors formats validation errors from validator/v10.
func FormatValidationErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err == nil {
			return nil
		}
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		element := fmt.Sprintf("Field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			element = fmt.Sprintf("%s (value: %s)", element, fe.Param())
		}
		out = append(out, element)
	}
	return out
}

// RespondWithValidationErrors writes a 400 listing every failed field.
func RespondWithValidationErrors(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status":  "error",
		"message": "validation failed",
		"errors":  FormatValidationErrors(err),
	})
}

// SanitizeInput trims surrounding whitespace.
func SanitizeInput(input string) string {
	return strings.TrimSpace(input)
}
