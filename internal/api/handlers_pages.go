package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (handler *Handler) SetLanguage(c *fiber.Ctx) error {
	handler.setLanguageCookie(c, c.Params("lang"))
	return c.Redirect(sanitizeRedirectPath(c.Query("next"), "/"), fiber.StatusSeeOther)
}

func (handler *Handler) ShowHome(c *fiber.Ctx) error {
	return handler.render(c, "home", fiber.Map{})
}

func (handler *Handler) NotFound(c *fiber.Ctx) error {
	if strings.HasPrefix(c.Path(), "/api/") || acceptsJSON(c) {
		return apiError(c, fiber.StatusNotFound, "error.not_found")
	}
	return handler.renderNotFound(c, "not_found.title", "not_found.body")
}

func (handler *Handler) renderNotFound(c *fiber.Ctx, headingKey string, bodyKey string) error {
	c.Status(fiber.StatusNotFound)
	return handler.render(c, "not_found", fiber.Map{
		"Title":      localizedPageTitle(currentMessages(c), headingKey),
		"HeadingKey": headingKey,
		"BodyKey":    bodyKey,
	})
}
