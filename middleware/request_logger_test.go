package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger_LevelFollowsStatus(t *testing.T) {
	logger, hook := test.NewNullLogger()
	app := fiber.New()
	app.Use(RequestLogger(logger))
	app.Get("/ok", func(c *fiber.Ctx) error {
		assert.NotEmpty(t, c.Locals(RequestIDKey))
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })
	app.Get("/boom", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusBadGateway) })

	cases := []struct {
		path   string
		status int
		level  logrus.Level
	}{
		{"/ok", 200, logrus.InfoLevel},
		{"/missing", 404, logrus.WarnLevel},
		{"/boom", 502, logrus.ErrorLevel},
	}
	for _, tc := range cases {
		hook.Reset()
		resp, err := app.Test(httptest.NewRequest("GET", tc.path, nil))
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.path)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

		entry := hook.LastEntry()
		require.NotNil(t, entry, tc.path)
		assert.Equal(t, tc.level, entry.Level, tc.path)
		assert.Equal(t, tc.status, entry.Data["status_code"])
	}
}
