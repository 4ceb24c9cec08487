package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"videosummary/internal/apperrors"
	"videosummary/internal/upload"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperrors.Errorf(apperrors.InvalidInput, "op", "bad"), 400},
		{apperrors.Errorf(apperrors.NotFound, "op", "gone"), 404},
		{apperrors.E(apperrors.UploadFailure, "op", fmt.Errorf("%w: 10 > 5", upload.ErrTooLarge)), 413},
		{apperrors.Errorf(apperrors.UploadFailure, "op", "status 500"), 502},
		{apperrors.Errorf(apperrors.GenerationFailure, "op", "empty"), 502},
		{apperrors.Errorf(apperrors.PersistenceFailure, "op", "down"), 500},
		{fiber.ErrMethodNotAllowed, 405},
		{errors.New("plain"), 500},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}

func TestFormatValidationErrors(t *testing.T) {
	type req struct {
		URL string `validate:"required,url"`
	}
	err := validator.New().Struct(req{URL: ""})
	msgs := FormatValidationErrors(err)
	assert.Equal(t, []string{"Field 'URL' failed on the 'required' tag"}, msgs)
	assert.Nil(t, FormatValidationErrors(nil))
}
