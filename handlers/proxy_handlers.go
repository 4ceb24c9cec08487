package handlers

import (
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"
)

// proxiedHeaders are copied from the client request to the upstream.
var proxiedHeaders = []string{fiber.HeaderRange, fiber.HeaderIfRange, fiber.HeaderUserAgent}

// VideoProxy streams ?url through the server so the browser can play media
// served without CORS headers.
func (h *ApplicationHandler) VideoProxy(c *fiber.Ctx) error {
	raw := c.Query("url")
	u, err := url.Parse(raw)
	if raw == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "a valid url parameter is required"})
	}

	req, err := http.NewRequestWithContext(c.UserContext(), http.MethodGet, u.String(), nil)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	for _, name := range proxiedHeaders {
		if v := c.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}

	resp, err := h.HTTP.Do(req)
	if err != nil {
		h.Logger.WithField("error", err).Warn("video proxy upstream failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	for name, values := range resp.Header {
		for _, v := range values {
			c.Response().Header.Add(name, v)
		}
	}
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	c.Status(resp.StatusCode)
	// The body is closed by fasthttp once streamed.
	return c.SendStream(resp.Body, int(resp.ContentLength))
}
