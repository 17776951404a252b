package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	authCookieName     = "diabetic_admin"
	languageCookieName = "diabeticqr_lang"
	flashCookieName    = "diabeticqr_flash"
	contextAdminKey    = "is_admin"
	contextLanguageKey = "current_language"
	contextMessagesKey = "current_messages"
)

// AuthRequired guards admin routes: API callers get 401 JSON, browsers are
// sent to the login page.
func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	if err := handler.authenticateRequest(c); err != nil {
		if strings.HasPrefix(c.Path(), "/api/") {
			return apiError(c, fiber.StatusUnauthorized, "error.unauthorized")
		}
		return c.Redirect("/admin", fiber.StatusSeeOther)
	}
	c.Locals(contextAdminKey, true)
	return c.Next()
}

func (handler *Handler) LanguageMiddleware(c *fiber.Ctx) error {
	cookieLanguage := c.Cookies(languageCookieName)
	language := handler.i18n.DetectFromAcceptLanguage(c.Get("Accept-Language"))
	if cookieLanguage != "" {
		language = handler.i18n.NormalizeLanguage(cookieLanguage)
	}
	if cookieLanguage != language {
		handler.setLanguageCookie(c, language)
	}

	c.Locals(contextLanguageKey, language)
	c.Locals(contextMessagesKey, handler.i18n.Messages(language))
	return c.Next()
}

func (handler *Handler) setLanguageCookie(c *fiber.Ctx, language string) {
	c.Cookie(&fiber.Cookie{
		Name:     languageCookieName,
		Value:    handler.i18n.NormalizeLanguage(language),
		Path:     "/",
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  time.Now().AddDate(1, 0, 0),
	})
}

func isAdminRequest(c *fiber.Ctx) bool {
	admin, _ := c.Locals(contextAdminKey).(bool)
	return admin
}

func currentLanguage(c *fiber.Ctx) string {
	language, _ := c.Locals(contextLanguageKey).(string)
	return strings.TrimSpace(language)
}

func currentMessages(c *fiber.Ctx) map[string]string {
	messages, ok := c.Locals(contextMessagesKey).(map[string]string)
	if !ok || messages == nil {
		return map[string]string{}
	}
	return messages
}
