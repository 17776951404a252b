package api

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func redirectOrJSON(c *fiber.Ctx, path string) error {
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"ok": true})
	}
	return c.Redirect(path, fiber.StatusSeeOther)
}

// apiError writes {"error": localized message, "code": message key}.
func apiError(c *fiber.Ctx, status int, key string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": translateMessage(currentMessages(c), key),
		"code":  key,
	})
}

func acceptsJSON(c *fiber.Ctx) bool {
	return strings.Contains(strings.ToLower(c.Get(fiber.HeaderAccept)), fiber.MIMEApplicationJSON)
}

func sendsJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEApplicationJSON)
}

func wantsJSON(c *fiber.Ctx) bool {
	return acceptsJSON(c) || sendsJSON(c)
}

func csrfToken(c *fiber.Ctx) string {
	token, _ := c.Locals("csrf").(string)
	return token
}

func translateMessage(messages map[string]string, key string) string {
	if value, ok := messages[key]; ok && strings.TrimSpace(value) != "" {
		return value
	}
	return key
}

func localizedPageTitle(messages map[string]string, key string) string {
	appTitle := translateMessage(messages, "app.title")
	title := translateMessage(messages, key)
	if key == "" || title == key || title == appTitle {
		return appTitle
	}
	return title + " | " + appTitle
}

func sanitizeRedirectPath(raw string, fallback string) string {
	candidate := strings.TrimSpace(raw)
	if candidate == "" || strings.HasPrefix(candidate, "//") || !strings.HasPrefix(candidate, "/") {
		return fallback
	}
	parsed, err := url.Parse(candidate)
	if err != nil || parsed.IsAbs() || strings.Contains(candidate, `\`) {
		return fallback
	}
	return candidate
}

func currentPathWithQuery(c *fiber.Ctx) string {
	if path := string(c.Request().URI().RequestURI()); path != "" {
		return path
	}
	return c.Path()
}

func isChecked(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "on", "true", "yes":
		return true
	default:
		return false
	}
}
